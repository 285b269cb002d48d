package testsupport

import (
	"context"
	"testing"

	"shellac/internal/config"
	"shellac/internal/ledger"
)

// MustOpenStore opens a ledger.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEpisode creates a new episode row for tests using the provided store.
func NewEpisode(t testing.TB, store *ledger.Store, title, source string) *ledger.Item {
	t.Helper()

	item, err := store.NewEpisode(context.Background(), title, source, 1, 0, "test-run")
	if err != nil {
		t.Fatalf("store.NewEpisode: %v", err)
	}
	return item
}
