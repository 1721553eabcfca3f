package review

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reviewdex/internal/db"
	"github.com/kailas-cloud/reviewdex/internal/domain"
	domrev "github.com/kailas-cloud/reviewdex/internal/domain/review"
)

// DefaultCollection is the collection reviews are stored in.
const DefaultCollection = "Reviews"

// Repo implements usecase/review.Repository on top of a document collection.
type Repo struct {
	col db.Collection
}

// Option configures a Repo.
type Option func(*Repo)

// WithDecorator wraps the opened collection, e.g. with instrumentation.
func WithDecorator(wrap func(db.Collection) db.Collection) Option {
	return func(r *Repo) {
		if wrap != nil {
			r.col = wrap(r.col)
		}
	}
}

// New attaches to the named collection, creating it on first use.
// Calling New again against the same store attaches to the same data.
func New(ctx context.Context, m db.CollectionManager, collectionName string, opts ...Option) (*Repo, error) {
	if collectionName == "" {
		collectionName = DefaultCollection
	}
	col, err := db.GetOrCreateCollection(ctx, m, collectionName)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w: %w", collectionName, domain.ErrStoreUnavailable, err)
	}
	r := &Repo{col: col}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Collection returns the name of the backing collection.
func (r *Repo) Collection() string { return r.col.Name() }

// Add appends a single review and returns its id.
func (r *Repo) Add(ctx context.Context, rv *domrev.Review) (string, error) {
	rec := recordFromReview(rv)
	if err := r.col.Add(ctx, []db.Record{rec}); err != nil {
		return "", fmt.Errorf("add review %s: %w: %w", rec.ID, domain.ErrStoreUnavailable, err)
	}
	return rec.ID, nil
}

// List returns every stored review in the store's order. Each call re-reads the
// whole collection.
func (r *Repo) List(ctx context.Context) ([]domrev.Review, error) {
	res, err := r.col.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get reviews: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if len(res.Metadatas) != res.Len() || len(res.Documents) != res.Len() {
		return nil, fmt.Errorf("misaligned get result (%d ids, %d metadatas, %d documents): %w",
			res.Len(), len(res.Metadatas), len(res.Documents), domain.ErrCorruptRecord)
	}

	out := make([]domrev.Review, 0, res.Len())
	for i, id := range res.IDs {
		rv, err := reviewFromRecord(id, res.Metadatas[i], res.Documents[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, nil
}
