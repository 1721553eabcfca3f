package review

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex/internal/domain"
	domrev "github.com/kailas-cloud/reviewdex/internal/domain/review"
	"github.com/kailas-cloud/reviewdex/internal/logger"
)

// SubmitInput carries the raw form fields of a submission. A nil field was absent
// from the form; an empty string was present but blank.
type SubmitInput struct {
	Title      *string `form:"title" validate:"required"`
	ReviewText *string `form:"review_text" validate:"required"`
	Rating     *string `form:"rating" validate:"required"`
}

// Service handles review submission and listing.
type Service struct {
	repo     Repository
	embedder Embedder
	ids      IDGenerator
	validate *validator.Validate
	log      *zap.Logger
}

// New creates a review service with uuid ids and no embedder.
func New(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	return &Service{
		repo:     repo,
		ids:      UUIDGenerator{},
		validate: v,
		log:      log,
	}
}

// WithEmbedder vectorizes review text before storing it.
func (s *Service) WithEmbedder(e Embedder) *Service {
	s.embedder = e
	return s
}

// WithIDGenerator overrides the id strategy.
func (s *Service) WithIDGenerator(g IDGenerator) *Service {
	if g != nil {
		s.ids = g
	}
	return s
}

// Submit validates the input and stores a new review. Returns the generated id.
// Nothing is written when validation or embedding fails.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (string, error) {
	if err := s.validateInput(in); err != nil {
		return "", err
	}

	rating, err := parseRating(*in.Rating)
	if err != nil {
		return "", err
	}

	rv, err := domrev.New(s.ids.NewID(), *in.Title, *in.ReviewText, rating)
	if err != nil {
		return "", fmt.Errorf("build review: %w", err)
	}

	if s.embedder != nil {
		res, err := s.embedder.Embed(ctx, rv.Text())
		if err != nil {
			if errors.Is(err, domain.ErrEmbeddingProviderError) {
				return "", fmt.Errorf("vectorize review: %w", err)
			}
			return "", fmt.Errorf("vectorize review: %w: %w", domain.ErrEmbeddingProviderError, err)
		}
		rv = rv.WithVector(res.Embedding)
	}

	start := time.Now()
	id, err := s.repo.Add(ctx, &rv)
	if err != nil {
		return "", fmt.Errorf("add review: %w", err)
	}

	logger.FromContextOr(ctx, s.log).Info("review uploaded",
		zap.String("review_id", id),
		zap.Duration("upload_time", time.Since(start)),
	)
	return id, nil
}

// List returns every stored review in insertion order.
func (s *Service) List(ctx context.Context) ([]domrev.Review, error) {
	reviews, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *Service) validateInput(in SubmitInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return domain.NewFieldError(verrs[0].Field(), "field is required")
	}
	return fmt.Errorf("validate submission: %w", err)
}

func parseRating(raw string) (int, error) {
	var rating int
	if err := runtime.BindStringToObject(strings.TrimSpace(raw), &rating); err != nil {
		return 0, domain.NewFieldError("rating", fmt.Sprintf("invalid literal for integer: %q", raw))
	}
	return rating, nil
}
