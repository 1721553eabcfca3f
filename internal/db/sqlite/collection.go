package sqlite

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reviewdex/internal/db"
)

// Compile-time check: Collection implements db.Collection.
var _ db.Collection = (*Collection)(nil)

// Collection is a named group of rows in the records table.
type Collection struct {
	store *Store
	name  string
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Add inserts records in one transaction. A duplicate id overwrites the stored
// row but keeps its original position.
func (c *Collection) Add(ctx context.Context, records []db.Record) error {
	if len(records) == 0 {
		return nil
	}
	if c.store.closed.Load() {
		return &db.Error{Op: db.OpAdd, Err: db.ErrClosed}
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpAdd, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO records(collection, id, document, metadata, embedding) VALUES(?, ?, ?, ?, ?)
ON CONFLICT(collection, id) DO UPDATE SET
    document  = excluded.document,
    metadata  = excluded.metadata,
    embedding = excluded.embedding`)
	if err != nil {
		return &db.Error{Op: db.OpAdd, Err: err}
	}
	defer stmt.Close()

	for _, r := range records {
		if r.ID == "" {
			return &db.Error{Op: db.OpAdd, Err: fmt.Errorf("record id is required")}
		}
		meta, err := db.EncodeMetadata(r.Metadata)
		if err != nil {
			return &db.Error{Op: db.OpAdd, Err: err}
		}
		if _, err := stmt.ExecContext(ctx, c.name, r.ID, r.Document, meta, db.EncodeEmbedding(r.Embedding)); err != nil {
			return &db.Error{Op: db.OpAdd, Err: fmt.Errorf("record %s: %w", r.ID, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpAdd, Err: err}
	}
	return nil
}

// Get returns all records in insertion order.
func (c *Collection) Get(ctx context.Context) (*db.GetResult, error) {
	if c.store.closed.Load() {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrClosed}
	}

	rows, err := c.store.db.QueryContext(ctx,
		`SELECT id, document, metadata FROM records WHERE collection = ? ORDER BY seq`, c.name)
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	defer rows.Close()

	out := &db.GetResult{
		IDs:       []string{},
		Metadatas: []db.Metadata{},
		Documents: []string{},
	}
	for rows.Next() {
		var id, doc, rawMeta string
		if err := rows.Scan(&id, &doc, &rawMeta); err != nil {
			return nil, &db.Error{Op: db.OpGet, Err: err}
		}
		meta, err := db.DecodeMetadata(rawMeta)
		if err != nil {
			return nil, &db.Error{Op: db.OpGet, Err: fmt.Errorf("record %s: %w", id, err)}
		}
		out.IDs = append(out.IDs, id)
		out.Metadatas = append(out.Metadatas, meta)
		out.Documents = append(out.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}
