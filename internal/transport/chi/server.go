package chi

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domrev "github.com/kailas-cloud/reviewdex/internal/domain/review"
	"github.com/kailas-cloud/reviewdex/internal/metrics"
	healthuc "github.com/kailas-cloud/reviewdex/internal/usecase/health"
	reviewuc "github.com/kailas-cloud/reviewdex/internal/usecase/review"
)

const maxFormBytes = 1 << 20

//go:embed templates/*.html
var templateFS embed.FS

// ReviewService is the review use case consumed by the handlers.
type ReviewService interface {
	Submit(ctx context.Context, in reviewuc.SubmitInput) (string, error)
	List(ctx context.Context) ([]domrev.Review, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the review pages plus /health and /metrics.
type Server struct {
	reviews       ReviewService
	health        HealthService
	logger        *zap.Logger
	pages         *template.Template
	errorHandlers []errorHandler
}

// NewServer creates the HTTP server. health may be nil.
func NewServer(reviews ReviewService, health HealthService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		reviews:       reviews,
		health:        health,
		logger:        logger,
		pages:         template.Must(template.ParseFS(templateFS, "templates/*.html")),
		errorHandlers: defaultErrorHandlers(),
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/", s.Index)
	r.Post("/add_review", s.AddReview)
	r.Get("/reviews", s.ListReviews)
	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", nil)
}

// AddReview handles POST /add_review.
func (s *Server) AddReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	in := reviewuc.SubmitInput{
		Title:      formValue(r, "title"),
		ReviewText: formValue(r, "review_text"),
		Rating:     formValue(r, "rating"),
	}
	if _, err := s.reviews.Submit(r.Context(), in); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// ListReviews handles GET /reviews.
func (s *Server) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.reviews.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]reviewView, len(reviews))
	for i := range reviews {
		items[i] = reviewToView(&reviews[i])
	}
	s.render(w, r, "reviews.html", reviewsPage{Reviews: items})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: string(healthuc.Healthy)})
		return
	}
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type reviewView struct {
	ID         string
	Title      string
	Rating     int
	ReviewText string
}

type reviewsPage struct {
	Reviews []reviewView
}

func reviewToView(rv *domrev.Review) reviewView {
	return reviewView{ID: rv.ID(), Title: rv.Title(), Rating: rv.Rating(), ReviewText: rv.Text()}
}

// parseForm fills r.PostForm from either a urlencoded or a multipart body.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// formValue returns nil when the field is absent from the posted form.
func formValue(r *http.Request, name string) *string {
	vs, ok := r.PostForm[name]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := vs[0]
	return &v
}

// render executes into a buffer so a template failure never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
