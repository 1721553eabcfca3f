package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/reviewdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultKeyPrefix namespaces every key written by the store.
const DefaultKeyPrefix = "reviewdex:"

// Config holds connection parameters for a Redis or Valkey server.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements db.Store via rueidis. Works against Redis and Valkey alike.
type Store struct {
	client rueidis.Client
	prefix string
}

// NewStore creates a store backed by a rueidis client.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newStore(client, cfg.KeyPrefix), nil
}

func newStore(client rueidis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.b().Ping().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() error {
	s.client.Close()
	return nil
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// GetCollection returns an existing collection.
func (s *Store) GetCollection(ctx context.Context, name string) (db.Collection, error) {
	cmd := s.b().Exists().Key(s.collectionKey(name)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return nil, &db.Error{Op: db.OpGetCollection, Err: err}
	}
	if n == 0 {
		return nil, &db.Error{Op: db.OpGetCollection, Err: db.ErrCollectionNotFound}
	}
	return &Collection{store: s, name: name}, nil
}

// CreateCollection registers a collection with HSETNX so concurrent creators agree.
func (s *Store) CreateCollection(ctx context.Context, name string) (db.Collection, error) {
	if name == "" {
		return nil, &db.Error{Op: db.OpCreateCollection, Err: fmt.Errorf("collection name is required")}
	}
	cmd := s.b().Hsetnx().Key(s.collectionKey(name)).
		Field("created_at").Value(strconv.FormatInt(time.Now().UnixMilli(), 10)).Build()
	set, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return nil, &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	if set == 0 {
		return nil, &db.Error{Op: db.OpCreateCollection, Err: db.ErrCollectionExists}
	}
	return &Collection{store: s, name: name}, nil
}

func (s *Store) collectionKey(name string) string {
	return s.prefix + "collection:" + name
}

func (s *Store) recordKey(collection, id string) string {
	return s.prefix + collection + ":doc:" + id
}

func (s *Store) orderKey(collection string) string {
	return s.prefix + collection + ":order"
}

func (s *Store) seqKey(collection string) string {
	return s.prefix + collection + ":seq"
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}
