package review

import (
	"context"
	"testing"

	"github.com/kailas-cloud/reviewdex/internal/db"
)

// mockCollection implements db.Collection for tests.
type mockCollection struct {
	addFn func(ctx context.Context, records []db.Record) error
	getFn func(ctx context.Context) (*db.GetResult, error)
}

func (m *mockCollection) Name() string { return "Reviews" }

func (m *mockCollection) Add(ctx context.Context, records []db.Record) error {
	if m.addFn != nil {
		return m.addFn(ctx, records)
	}
	return nil
}

func (m *mockCollection) Get(ctx context.Context) (*db.GetResult, error) {
	if m.getFn != nil {
		return m.getFn(ctx)
	}
	return &db.GetResult{}, nil
}

// mockManager implements db.CollectionManager for tests.
type mockManager struct {
	getFn    func(ctx context.Context, name string) (db.Collection, error)
	createFn func(ctx context.Context, name string) (db.Collection, error)
}

func (m *mockManager) GetCollection(ctx context.Context, name string) (db.Collection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return nil, db.ErrCollectionNotFound
}

func (m *mockManager) CreateCollection(ctx context.Context, name string) (db.Collection, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name)
	}
	return &mockCollection{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockCollection) {
	t.Helper()
	mc := &mockCollection{}
	m := &mockManager{
		getFn: func(_ context.Context, _ string) (db.Collection, error) { return mc, nil },
	}
	repo, err := New(context.Background(), m, DefaultCollection)
	if err != nil {
		t.Fatalf("open test repo: %v", err)
	}
	return repo, mc
}
