package testsupport

import (
	"testing"

	"gopsplice/internal/config"
	"gopsplice/internal/journal"
)

// MustOpenJournal opens the attempt journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
