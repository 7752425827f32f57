// Package testutil provides shared test helpers for setting up archive
// directories and catalogs.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/starford/grampsxml/internal/catalog"
	"github.com/starford/grampsxml/internal/storage"
)

// TestDB creates a temporary SQLite catalog that is automatically cleaned up.
func TestDB(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "grampsxml-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestArchiveDir creates a temporary archive directory with a storage.Provider.
func TestArchiveDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Sample returns the contents of the shared sample archive, a valid Gramps
// XML document with one record of every kind and a three-person family.
func Sample(t *testing.T) []byte {
	t.Helper()
	_, file, _, _ := runtime.Caller(0)
	data, err := os.ReadFile(filepath.Join(filepath.Dir(file), "..", "grampsxml", "testdata", "sample.xml"))
	if err != nil {
		t.Fatal(err)
	}
	return data
}
