package testsupport

import (
	"testing"

	"clipdeck/internal/config"
	"clipdeck/internal/journal"
	"clipdeck/internal/logging"
	"clipdeck/internal/resources"
)

// MustOpenJournal opens a journal.Store for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustNewManager creates a resource manager in the config's handle dir and
// closes it when the test ends.
func MustNewManager(t testing.TB, cfg *config.Config) *resources.Manager {
	t.Helper()

	manager, err := resources.NewManager(cfg.Paths.HandleDir, logging.NewNop())
	if err != nil {
		t.Fatalf("resources.NewManager: %v", err)
	}
	t.Cleanup(func() {
		_ = manager.Close()
	})
	return manager
}
