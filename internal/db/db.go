package db

import (
	"context"
	"time"
)

// Store is the document store facade: a set of named collections plus lifecycle.
type Store interface {
	Pinger
	CollectionManager
	Close() error
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CollectionManager opens named collections.
type CollectionManager interface {
	// GetCollection returns ErrCollectionNotFound if the collection was never created.
	GetCollection(ctx context.Context, name string) (Collection, error)
	CreateCollection(ctx context.Context, name string) (Collection, error)
}

// Collection is a named group of documents with metadata.
type Collection interface {
	Name() string
	// Add appends records. An id that already exists is overwritten in place.
	Add(ctx context.Context, records []Record) error
	// Get returns every record in the store's native order.
	Get(ctx context.Context) (*GetResult, error)
}

// Record is a single document with its metadata and optional embedding.
type Record struct {
	ID        string
	Document  string
	Metadata  Metadata
	Embedding []float32
}

// Metadata holds structured fields attached to a document.
type Metadata map[string]any

// GetResult is the positional (ids, metadatas, documents) triple returned by Get.
type GetResult struct {
	IDs       []string
	Metadatas []Metadata
	Documents []string
}

// Len returns the number of records in the result.
func (r *GetResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.IDs)
}

// GetOrCreateCollection attaches to an existing collection or creates it.
// Creation races are resolved by re-reading the collection.
func GetOrCreateCollection(ctx context.Context, m CollectionManager, name string) (Collection, error) {
	col, err := m.GetCollection(ctx, name)
	if err == nil {
		return col, nil
	}
	if !IsCollectionNotFound(err) {
		return nil, err
	}
	col, err = m.CreateCollection(ctx, name)
	if err != nil {
		if IsCollectionExists(err) {
			return m.GetCollection(ctx, name)
		}
		return nil, err
	}
	return col, nil
}
