package catalog

import "github.com/starford/grampsxml/internal/models"

// Catalog defines the interface for archive catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Catalog interface {
	UpsertArchive(rec *Record) error
	DeleteArchive(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	GetArchive(path string) (*ArchiveRow, error)
	ListArchives(limit, offset int, sort string) ([]ArchiveRow, int, error)
	Violations(path string) ([]ViolationRow, error)
	Search(query string, kind models.Kind, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)

// Analyzer turns the raw bytes of an archive file into a catalog record.
// A document that cannot be parsed still yields a record carrying the parse
// error; the returned error is reserved for failures to analyze at all.
type Analyzer interface {
	Analyze(path string, data []byte) (*Record, error)
}
