package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/reviewdex/internal/db"
)

// Review store metrics.
var (
	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Review store operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"driver", "op", "status"},
	)

	StoreRecordsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_records_written_total",
			Help:      "Total records written to the review store",
		},
		[]string{"driver", "collection"},
	)
)

// InstrumentedCollection decorates a db.Collection with operation metrics.
type InstrumentedCollection struct {
	inner  db.Collection
	driver string
}

// InstrumentCollection wraps col so that Add and Get are timed under the driver label.
func InstrumentCollection(col db.Collection, driver string) *InstrumentedCollection {
	return &InstrumentedCollection{inner: col, driver: driver}
}

// Name returns the wrapped collection name.
func (c *InstrumentedCollection) Name() string { return c.inner.Name() }

// Add delegates to the wrapped collection and records the outcome.
func (c *InstrumentedCollection) Add(ctx context.Context, records []db.Record) error {
	start := time.Now()
	err := c.inner.Add(ctx, records)
	c.observe(db.OpAdd, start, err)
	if err == nil {
		StoreRecordsWrittenTotal.WithLabelValues(c.driver, c.inner.Name()).Add(float64(len(records)))
	}
	return err //nolint:wrapcheck // decorator preserves the store error
}

// Get delegates to the wrapped collection and records the outcome.
func (c *InstrumentedCollection) Get(ctx context.Context) (*db.GetResult, error) {
	start := time.Now()
	res, err := c.inner.Get(ctx)
	c.observe(db.OpGet, start, err)
	return res, err //nolint:wrapcheck // decorator preserves the store error
}

func (c *InstrumentedCollection) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperationDuration.WithLabelValues(c.driver, op, status).Observe(time.Since(start).Seconds())
}
