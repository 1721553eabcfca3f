package review

import (
	"context"

	"github.com/kailas-cloud/reviewdex/internal/domain"
	domrev "github.com/kailas-cloud/reviewdex/internal/domain/review"
)

// Repository defines the storage contract for reviews.
type Repository interface {
	Add(ctx context.Context, rv *domrev.Review) (id string, err error)
	List(ctx context.Context) ([]domrev.Review, error)
}

// Embedder vectorizes review text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// IDGenerator produces ids for new reviews.
type IDGenerator interface {
	NewID() string
}
