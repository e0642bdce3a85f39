package thread

import (
	"context"
	"testing"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn    func(ctx context.Context, key, path string, data []byte) error
	jsonInsertFn func(ctx context.Context, key string, data []byte) error
	jsonGetFn    func(ctx context.Context, key string, paths ...string) ([]byte, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONInsert(ctx context.Context, key string, data []byte) error {
	if m.jsonInsertFn != nil {
		return m.jsonInsertFn(ctx, key, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return []byte(`{}`), nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "quest:"), ms
}
