// Package catalog keeps an SQLite catalog of the archives in the archive
// directory: per-archive summaries, searchable entity labels and the last
// validation report. Search uses FTS5 when built with the sqlite_fts5 tag.
package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/grampsxml/internal/models"
)

// countColumns maps each entity kind to its count column in archives.
var countColumns = map[models.Kind]string{
	models.KindPerson:     "people",
	models.KindFamily:     "families",
	models.KindEvent:      "events",
	models.KindPlace:      "places",
	models.KindSource:     "sources",
	models.KindCitation:   "citations",
	models.KindRepository: "repositories",
	models.KindNote:       "notes",
	models.KindTag:        "tags",
}

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS archives (
	path           TEXT PRIMARY KEY,
	checksum       TEXT NOT NULL DEFAULT '',
	schema_version TEXT NOT NULL DEFAULT '',
	people         INTEGER NOT NULL DEFAULT 0,
	families       INTEGER NOT NULL DEFAULT 0,
	events         INTEGER NOT NULL DEFAULT 0,
	places         INTEGER NOT NULL DEFAULT 0,
	sources        INTEGER NOT NULL DEFAULT 0,
	citations      INTEGER NOT NULL DEFAULT 0,
	repositories   INTEGER NOT NULL DEFAULT 0,
	notes          INTEGER NOT NULL DEFAULT 0,
	tags           INTEGER NOT NULL DEFAULT 0,
	violations     INTEGER NOT NULL DEFAULT 0,
	parse_error    TEXT NOT NULL DEFAULT '',
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entities (
	archive   TEXT NOT NULL REFERENCES archives(path) ON DELETE CASCADE,
	handle    TEXT NOT NULL,
	kind      TEXT NOT NULL,
	gramps_id TEXT NOT NULL DEFAULT '',
	label     TEXT NOT NULL DEFAULT '',
	label_key TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS violations (
	archive   TEXT NOT NULL REFERENCES archives(path) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	code      TEXT NOT NULL,
	kind      TEXT NOT NULL DEFAULT '',
	handle    TEXT NOT NULL DEFAULT '',
	gramps_id TEXT NOT NULL DEFAULT '',
	field     TEXT NOT NULL DEFAULT '',
	value     TEXT NOT NULL DEFAULT '',
	reason    TEXT NOT NULL DEFAULT '',
	line      INTEGER NOT NULL DEFAULT 0,
	UNIQUE(archive, seq)
);

CREATE INDEX IF NOT EXISTS idx_entities_archive ON entities(archive);
CREATE INDEX IF NOT EXISTS idx_entities_label_key ON entities(label_key);
CREATE INDEX IF NOT EXISTS idx_violations_archive ON violations(archive);
`

// DB wraps a sql.DB with catalog-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// countList returns the count columns in models.Kinds order, joined by sep
// after applying format to each.
func countList(format, sep string) string {
	parts := make([]string, len(models.Kinds))
	for i, k := range models.Kinds {
		parts[i] = fmt.Sprintf(format, countColumns[k])
	}
	return strings.Join(parts, sep)
}
