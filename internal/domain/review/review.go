package review

import "fmt"

// Review is the review aggregate (immutable value object).
type Review struct {
	id     string
	title  string
	text   string
	rating int
	vector []float32
}

// New creates a Review. Only the id is checked: title and text may be empty and
// the rating is not range-checked.
func New(id, title, text string, rating int) (Review, error) {
	if id == "" {
		return Review{}, fmt.Errorf("review ID is required")
	}
	return Review{id: id, title: title, text: text, rating: rating}, nil
}

// Reconstruct creates a Review without validation (storage hydration).
func Reconstruct(id, title, text string, rating int) Review {
	return Review{id: id, title: title, text: text, rating: rating}
}

// ID returns the review identifier.
func (r *Review) ID() string { return r.id }

// Title returns the review title.
func (r *Review) Title() string { return r.title }

// Text returns the review body, stored as the document.
func (r *Review) Text() string { return r.text }

// Rating returns the numeric rating.
func (r *Review) Rating() int { return r.rating }

// Vector returns the embedding of the review text, if any.
func (r *Review) Vector() []float32 { return r.vector }

// WithVector returns a copy with the given vector set.
func (r *Review) WithVector(v []float32) Review {
	return Review{id: r.id, title: r.title, text: r.text, rating: r.rating, vector: v}
}
