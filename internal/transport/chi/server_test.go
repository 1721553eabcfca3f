package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/kailas-cloud/reviewdex/internal/domain"
	domrev "github.com/kailas-cloud/reviewdex/internal/domain/review"
	healthuc "github.com/kailas-cloud/reviewdex/internal/usecase/health"
	reviewuc "github.com/kailas-cloud/reviewdex/internal/usecase/review"
)

// --- Mocks ---

type mockReviewService struct {
	submitFn func(ctx context.Context, in reviewuc.SubmitInput) (string, error)
	listFn   func(ctx context.Context) ([]domrev.Review, error)
}

func (m *mockReviewService) Submit(ctx context.Context, in reviewuc.SubmitInput) (string, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, in)
	}
	return "review_1", nil
}

func (m *mockReviewService) List(ctx context.Context) ([]domrev.Review, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []domrev.Review{}, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// memRepo is an in-memory review repository for end-to-end handler tests.
type memRepo struct {
	reviews []domrev.Review
}

func (m *memRepo) Add(_ context.Context, rv *domrev.Review) (string, error) {
	m.reviews = append(m.reviews, *rv)
	return rv.ID(), nil
}

func (m *memRepo) List(_ context.Context) ([]domrev.Review, error) {
	return append([]domrev.Review{}, m.reviews...), nil
}

func postForm(t *testing.T, h http.Handler, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/add_review", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rr
}

// --- Index ---

func TestIndex_RendersForm(t *testing.T) {
	h := NewServer(&mockReviewService{}, nil, nil).Router()

	rr := get(t, h, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`action="/add_review"`, `name="title"`, `name="review_text"`, `name="rating"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %s", want)
		}
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

// --- AddReview ---

func TestAddReview_RedirectsOnSuccess(t *testing.T) {
	var got reviewuc.SubmitInput
	svc := &mockReviewService{
		submitFn: func(_ context.Context, in reviewuc.SubmitInput) (string, error) {
			got = in
			return "review_1", nil
		},
	}
	h := NewServer(svc, nil, nil).Router()

	rr := postForm(t, h, url.Values{"title": {"Great book"}, "review_text": {"I loved it"}, "rating": {"5"}})

	if rr.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Errorf("expected Location /, got %q", loc)
	}
	if got.Title == nil || *got.Title != "Great book" || *got.ReviewText != "I loved it" || *got.Rating != "5" {
		t.Errorf("form fields not forwarded: %+v", got)
	}
}

func TestAddReview_MultipartForm(t *testing.T) {
	var got reviewuc.SubmitInput
	svc := &mockReviewService{
		submitFn: func(_ context.Context, in reviewuc.SubmitInput) (string, error) {
			got = in
			return "review_1", nil
		},
	}
	h := NewServer(svc, nil, nil).Router()

	var body strings.Builder
	mw := multipart.NewWriter(&body)
	for _, kv := range [][2]string{{"title", "Great book"}, {"review_text", "I loved it"}, {"rating", "5"}} {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			t.Fatalf("write field %s: %v", kv[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/add_review", strings.NewReader(body.String()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.Title == nil || *got.Title != "Great book" || got.ReviewText == nil || *got.ReviewText != "I loved it" ||
		got.Rating == nil || *got.Rating != "5" {
		t.Errorf("multipart fields not forwarded: %+v", got)
	}
}

func TestAddReview_OversizedBody(t *testing.T) {
	h := NewServer(&mockReviewService{}, nil, nil).Router()

	rr := postForm(t, h, url.Values{"title": {strings.Repeat("x", maxFormBytes+1)}, "review_text": {"x"}, "rating": {"1"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if rr.Body.String() != "Error: invalid form body" {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}
}

func TestAddReview_AbsentFieldIsNil(t *testing.T) {
	var got reviewuc.SubmitInput
	svc := &mockReviewService{
		submitFn: func(_ context.Context, in reviewuc.SubmitInput) (string, error) {
			got = in
			return "review_1", nil
		},
	}
	h := NewServer(svc, nil, nil).Router()

	postForm(t, h, url.Values{"title": {""}, "rating": {"1"}})

	if got.Title == nil || *got.Title != "" {
		t.Error("expected present-but-empty title to be forwarded as empty string")
	}
	if got.ReviewText != nil {
		t.Error("expected absent review_text to be nil")
	}
}

func TestAddReview_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"field", domain.NewFieldError("rating", "bad"), http.StatusBadRequest, "Error: rating: bad"},
		{"validation", fmt.Errorf("x: %w", domain.ErrValidation), http.StatusBadRequest, "Error: validation failed"},
		{"store", fmt.Errorf("add: %w: disk I/O", domain.ErrStoreUnavailable), http.StatusServiceUnavailable,
			"Error: review store unavailable"},
		{"embedding", fmt.Errorf("emb: %w", domain.ErrEmbeddingProviderError), http.StatusBadGateway,
			"Error: embedding provider error"},
		{"unknown", errors.New("secret internals"), http.StatusInternalServerError, "Error: internal error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockReviewService{
				submitFn: func(_ context.Context, _ reviewuc.SubmitInput) (string, error) { return "", tc.err },
			}
			h := NewServer(svc, nil, nil).Router()

			rr := postForm(t, h, url.Values{"title": {"t"}, "review_text": {"x"}, "rating": {"1"}})
			if rr.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			if rr.Body.String() != tc.wantBody {
				t.Errorf("expected body %q, got %q", tc.wantBody, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("expected plain text error, got %s", ct)
			}
		})
	}
}

func TestAddReview_WrongMethod(t *testing.T) {
	h := NewServer(&mockReviewService{}, nil, nil).Router()

	rr := get(t, h, "/add_review")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

// --- End to end through the real service ---

func TestSubmitThenList(t *testing.T) {
	repo := &memRepo{}
	h := NewServer(reviewuc.New(repo, nil), nil, nil).Router()

	rr := postForm(t, h, url.Values{"title": {"Great book"}, "review_text": {"I loved it"}, "rating": {"5"}})
	if rr.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = get(t, h, "/reviews")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Great book", "I loved it", "Rating: 5", repo.reviews[0].ID()} {
		if !strings.Contains(body, want) {
			t.Errorf("reviews page missing %q", want)
		}
	}
}

func TestBadRatingDoesNotStore(t *testing.T) {
	repo := &memRepo{}
	h := NewServer(reviewuc.New(repo, nil), nil, nil).Router()

	rr := postForm(t, h, url.Values{"title": {"Bad"}, "review_text": {"x"}, "rating": {"five"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Body.String(), "Error: rating") {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}
	if len(repo.reviews) != 0 {
		t.Fatalf("expected no stored reviews, got %d", len(repo.reviews))
	}
}

func TestMissingFieldIsBadRequest(t *testing.T) {
	repo := &memRepo{}
	h := NewServer(reviewuc.New(repo, nil), nil, nil).Router()

	rr := postForm(t, h, url.Values{"title": {"t"}, "rating": {"1"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if rr.Body.String() != "Error: review_text: field is required" {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}
}

// --- ListReviews ---

func TestListReviews_Empty(t *testing.T) {
	h := NewServer(&mockReviewService{}, nil, nil).Router()

	rr := get(t, h, "/reviews")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No reviews yet.") {
		t.Error("expected empty-state text")
	}
}

func TestListReviews_EscapesHTML(t *testing.T) {
	svc := &mockReviewService{
		listFn: func(_ context.Context) ([]domrev.Review, error) {
			return []domrev.Review{domrev.Reconstruct("review_1", "<script>x</script>", "ok", 3)}, nil
		},
	}
	h := NewServer(svc, nil, nil).Router()

	body := get(t, h, "/reviews").Body.String()
	if strings.Contains(body, "<script>x</script>") {
		t.Error("title must be HTML-escaped")
	}
}

func TestListReviews_StoreError(t *testing.T) {
	svc := &mockReviewService{
		listFn: func(_ context.Context) ([]domrev.Review, error) {
			return nil, fmt.Errorf("list: %w", domain.ErrCorruptRecord)
		},
	}
	h := NewServer(svc, nil, nil).Router()

	rr := get(t, h, "/reviews")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if rr.Body.String() != "Error: corrupt review record" {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}
}

// --- Health & metrics ---

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		report healthuc.Report
		want   int
	}{
		{"ok", healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"store": "ok"}}, 200},
		{"down", healthuc.Report{Status: healthuc.Unhealthy, Checks: map[string]healthuc.CheckResult{"store": "error"}}, 503},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewServer(&mockReviewService{}, &mockHealth{report: tc.report}, nil).Router()

			rr := get(t, h, "/health")
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
			var resp healthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tc.report.Status) || resp.Checks["store"] != string(tc.report.Checks["store"]) {
				t.Errorf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewServer(&mockReviewService{}, nil, nil).Router()

	rr := get(t, h, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

// --- Middleware ---

func TestRecoverer_PlainText500(t *testing.T) {
	svc := &mockReviewService{
		listFn: func(_ context.Context) ([]domrev.Review, error) { panic("boom") },
	}
	h := NewServer(svc, nil, nil).Router()

	rr := get(t, h, "/reviews")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if rr.Body.String() != "Error: internal error" {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}
}
