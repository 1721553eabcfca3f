package review

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/reviewdex/internal/db"
	"github.com/kailas-cloud/reviewdex/internal/domain"
	domrev "github.com/kailas-cloud/reviewdex/internal/domain/review"
)

// Metadata keys of a stored review.
const (
	metaTitle  = "title"
	metaRating = "rating"
)

// recordFromReview maps a review to a store record: the text is the document,
// title and rating are metadata.
func recordFromReview(rv *domrev.Review) db.Record {
	return db.Record{
		ID:       rv.ID(),
		Document: rv.Text(),
		Metadata: db.Metadata{
			metaTitle:  rv.Title(),
			metaRating: rv.Rating(),
		},
		Embedding: rv.Vector(),
	}
}

// reviewFromRecord is the inverse of recordFromReview.
func reviewFromRecord(id string, meta db.Metadata, document string) (domrev.Review, error) {
	title, ok := meta[metaTitle].(string)
	if !ok {
		return domrev.Review{}, fmt.Errorf("record %s: missing title: %w", id, domain.ErrCorruptRecord)
	}
	rating, err := parseRating(meta[metaRating])
	if err != nil {
		return domrev.Review{}, fmt.Errorf("record %s: %w: %w", id, domain.ErrCorruptRecord, err)
	}
	return domrev.Reconstruct(id, title, document, rating), nil
}

func parseRating(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return 0, fmt.Errorf("rating %q is not an integer", n.String())
		}
		return i, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("rating %v is not an integer", n)
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case nil:
		return 0, fmt.Errorf("missing rating")
	default:
		return 0, fmt.Errorf("rating has unexpected type %T", v)
	}
}
