// Package testutil provides shared test helpers for setting up vaults
// and link-graph databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skaldra/notedown/internal/graph"
	"github.com/skaldra/notedown/internal/notename"
	"github.com/skaldra/notedown/internal/storage"
)

// Sentinel is the home-root marker used by test vaults. A hidden,
// extensionless name keeps it out of the note index and makes home-root
// discovery independent of whatever files the host system has above the
// temp directory.
const Sentinel = ".notedown-home"

// Vault bundles a temporary vault with its storage and graph DB.
type Vault struct {
	Dir   string
	Store *storage.FS
	Codec *notename.Codec
	DB    *graph.DB
}

// NewVault creates a temporary vault directory, a storage provider, and
// a temporary graph database, all cleaned up with the test.
func NewVault(t *testing.T) *Vault {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, Sentinel), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	codec := notename.NewCodec()
	store, err := storage.NewFS(dir, codec)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "notedown-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := graph.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return &Vault{Dir: dir, Store: store, Codec: codec, DB: db}
}
