package review

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ID strategies accepted by NewIDGenerator.
const (
	IDStrategyUUID = "uuid"
	IDStrategyUnix = "unix"
)

const idPrefix = "review_"

// UUIDGenerator issues random, collision-resistant ids.
type UUIDGenerator struct{}

// NewID returns "review_<uuid>".
func (UUIDGenerator) NewID() string {
	return idPrefix + uuid.NewString()
}

// UnixGenerator issues "review_<unix seconds>" ids. Two reviews submitted within
// the same second get the same id and the later one overwrites the earlier.
type UnixGenerator struct {
	Now func() time.Time
}

// NewID returns "review_<unix seconds>".
func (g UnixGenerator) NewID() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return idPrefix + strconv.FormatInt(now().Unix(), 10)
}

// NewIDGenerator returns the generator for a configured strategy. Empty means uuid.
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case "", IDStrategyUUID:
		return UUIDGenerator{}, nil
	case IDStrategyUnix:
		return UnixGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
