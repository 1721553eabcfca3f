package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/reviewdex/internal/db"
)

// Compile-time check: Collection implements db.Collection.
var _ db.Collection = (*Collection)(nil)

// Hash field names of a stored record.
const (
	fieldDocument  = "__document"
	fieldMetadata  = "__metadata"
	fieldEmbedding = "__embedding"
)

// Collection stores each record in a hash and keeps insertion order in a sorted
// set scored by a per-collection sequence.
type Collection struct {
	store *Store
	name  string
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Add writes each record. An existing id is replaced and keeps its position.
func (c *Collection) Add(ctx context.Context, records []db.Record) error {
	for _, r := range records {
		if r.ID == "" {
			return &db.Error{Op: db.OpAdd, Err: fmt.Errorf("record id is required")}
		}
		if err := c.add(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// add replaces the record hash and registers the id in one MULTI/EXEC, so the hash
// and its order entry are written together. ZADD NX keeps the first position of an id.
func (c *Collection) add(ctx context.Context, r db.Record) error {
	s := c.store
	key := s.recordKey(c.name, r.ID)

	meta, err := db.EncodeMetadata(r.Metadata)
	if err != nil {
		return &db.Error{Op: db.OpAdd, Err: err}
	}

	seq, err := s.do(ctx, s.b().Incr().Key(s.seqKey(c.name)).Build()).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpAdd, Err: fmt.Errorf("incr sequence: %w", err)}
	}

	hset := s.b().Hset().Key(key).FieldValue().
		FieldValue(fieldDocument, r.Document).
		FieldValue(fieldMetadata, meta)
	if emb := db.EncodeEmbedding(r.Embedding); emb != nil {
		hset = hset.FieldValue(fieldEmbedding, string(emb))
	}

	cmds := rueidis.Commands{
		s.b().Multi().Build(),
		s.b().Del().Key(key).Build(),
		hset.Build(),
		s.b().Zadd().Key(s.orderKey(c.name)).Nx().ScoreMember().ScoreMember(float64(seq), r.ID).Build(),
		s.b().Exec().Build(),
	}
	results := s.client.DoMulti(ctx, cmds...)
	for _, res := range results[:len(results)-1] {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpAdd, Err: fmt.Errorf("record %s: %w", r.ID, err)}
		}
	}
	replies, err := results[len(results)-1].ToArray()
	if err != nil {
		return &db.Error{Op: db.OpAdd, Err: fmt.Errorf("exec record %s: %w", r.ID, err)}
	}
	for _, reply := range replies {
		if err := reply.Error(); err != nil {
			return &db.Error{Op: db.OpAdd, Err: fmt.Errorf("exec record %s: %w", r.ID, err)}
		}
	}
	return nil
}

// Get reads the order set and fetches every record hash in one round trip.
func (c *Collection) Get(ctx context.Context) (*db.GetResult, error) {
	s := c.store
	out := &db.GetResult{
		IDs:       []string{},
		Metadatas: []db.Metadata{},
		Documents: []string{},
	}

	ids, err := s.do(ctx, s.b().Zrange().Key(s.orderKey(c.name)).Min("0").Max("-1").Build()).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return out, nil
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	if len(ids) == 0 {
		return out, nil
	}

	cmds := make([]rueidis.Completed, len(ids))
	for i, id := range ids {
		cmds[i] = s.b().Hgetall().Key(s.recordKey(c.name, id)).Build()
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpGet, Err: fmt.Errorf("record %s: %w", ids[i], err)}
		}
		if len(m) == 0 {
			// Order entry without a hash: the record was removed out of band.
			continue
		}
		meta, err := db.DecodeMetadata(m[fieldMetadata])
		if err != nil {
			return nil, &db.Error{Op: db.OpGet, Err: fmt.Errorf("record %s: %w", ids[i], err)}
		}
		out.IDs = append(out.IDs, ids[i])
		out.Metadatas = append(out.Metadatas, meta)
		out.Documents = append(out.Documents, m[fieldDocument])
	}
	return out, nil
}
