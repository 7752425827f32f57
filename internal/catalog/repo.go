package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/grampsxml/internal/apperr"
	"github.com/starford/grampsxml/internal/models"
)

// ArchiveRow represents a row in the archives table.
type ArchiveRow struct {
	Path           string              `json:"path"`
	Checksum       string              `json:"checksum"`
	SchemaVersion  string              `json:"schema_version,omitempty"`
	Counts         map[models.Kind]int `json:"counts"`
	ViolationCount int                 `json:"violations"`
	ParseError     string              `json:"parse_error,omitempty"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// EntityRow is one searchable record of an archive.
type EntityRow struct {
	Handle string      `json:"handle"`
	Kind   models.Kind `json:"kind"`
	ID     string      `json:"id,omitempty"`
	Label  string      `json:"label"`
}

// ViolationRow is one stored validation finding.
type ViolationRow struct {
	Code   string `json:"code"`
	Kind   string `json:"kind,omitempty"`
	Handle string `json:"handle,omitempty"`
	ID     string `json:"id,omitempty"`
	Field  string `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
	Line   int    `json:"line,omitempty"`
}

// Record is everything the catalog stores about one archive.
type Record struct {
	ArchiveRow
	Entities   []EntityRow
	Violations []ViolationRow
}

// SearchResult represents one search hit.
type SearchResult struct {
	Archive string      `json:"archive"`
	Handle  string      `json:"handle"`
	Kind    models.Kind `json:"kind"`
	ID      string      `json:"id,omitempty"`
	Label   string      `json:"label"`
}

var (
	upsertArchiveSQL = fmt.Sprintf(`
		INSERT INTO archives (path, checksum, schema_version, %s, violations, parse_error, updated_at)
		VALUES (?, ?, ?, %s, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum       = excluded.checksum,
			schema_version = excluded.schema_version,
			%s,
			violations     = excluded.violations,
			parse_error    = excluded.parse_error,
			updated_at     = excluded.updated_at
	`, countList("%s", ", "), countList("?", ", "), countList("%[1]s = excluded.%[1]s", ",\n\t\t\t"))

	selectArchiveSQL = fmt.Sprintf(`SELECT path, checksum, schema_version, %s, violations, parse_error, updated_at FROM archives`,
		countList("%s", ", "))
)

// UpsertArchive inserts or replaces an archive summary, its entities and its
// violations within a transaction.
func (db *DB) UpsertArchive(rec *Record) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	args := []any{rec.Path, rec.Checksum, rec.SchemaVersion}
	for _, k := range models.Kinds {
		args = append(args, rec.Counts[k])
	}
	args = append(args, len(rec.Violations), rec.ParseError, rec.UpdatedAt)
	if _, err := tx.Exec(upsertArchiveSQL, args...); err != nil {
		return fmt.Errorf("catalog: upsert archive: %w", err)
	}

	// Replace entities: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM entities WHERE archive = ?`, rec.Path); err != nil {
		return fmt.Errorf("catalog: clear entities: %w", err)
	}
	ftsDelete(tx, rec.Path)
	if len(rec.Entities) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO entities (archive, handle, kind, gramps_id, label, label_key) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("catalog: prepare entity insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range rec.Entities {
			if _, err := stmt.Exec(rec.Path, e.Handle, string(e.Kind), e.ID, e.Label, Key(e.Label)); err != nil {
				return fmt.Errorf("catalog: insert entity: %w", err)
			}
		}
		if err := ftsInsert(tx, rec.Path, rec.Entities); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM violations WHERE archive = ?`, rec.Path); err != nil {
		return fmt.Errorf("catalog: clear violations: %w", err)
	}
	if len(rec.Violations) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO violations (archive, seq, code, kind, handle, gramps_id, field, value, reason, line)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("catalog: prepare violation insert: %w", err)
		}
		defer stmt.Close()
		for i, v := range rec.Violations {
			if _, err := stmt.Exec(rec.Path, i, v.Code, v.Kind, v.Handle, v.ID, v.Field, v.Value, v.Reason, v.Line); err != nil {
				return fmt.Errorf("catalog: insert violation: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteArchive removes an archive with its entities and violations.
func (db *DB) DeleteArchive(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM entities WHERE archive = ?`, path)
	_, _ = tx.Exec(`DELETE FROM violations WHERE archive = ?`, path)
	_, _ = tx.Exec(`DELETE FROM archives WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for an archive, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM archives WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every cataloged archive keyed by path.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM archives`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// GetArchive returns the summary of one archive.
func (db *DB) GetArchive(path string) (*ArchiveRow, error) {
	row, err := scanArchive(db.conn.QueryRow(selectArchiveSQL+` WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog: archive %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get archive: %w", err)
	}
	return row, nil
}

// ListArchives returns one page of archive summaries and the total count.
// sort is one of "path" (default), "updated" or "violations".
func (db *DB) ListArchives(limit, offset int, sort string) ([]ArchiveRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	order := "path ASC"
	switch strings.ToLower(sort) {
	case "updated":
		order = "updated_at DESC, path ASC"
	case "violations":
		order = "violations DESC, path ASC"
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM archives`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count archives: %w", err)
	}

	rows, err := db.conn.Query(selectArchiveSQL+` ORDER BY `+order+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list archives: %w", err)
	}
	defer rows.Close()

	var out []ArchiveRow
	for rows.Next() {
		r, err := scanArchive(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

// Violations returns the stored validation report of an archive in report
// order.
func (db *DB) Violations(path string) ([]ViolationRow, error) {
	rows, err := db.conn.Query(`
		SELECT code, kind, handle, gramps_id, field, value, reason, line
		FROM violations WHERE archive = ? ORDER BY seq`, path)
	if err != nil {
		return nil, fmt.Errorf("catalog: violations: %w", err)
	}
	defer rows.Close()

	var out []ViolationRow
	for rows.Next() {
		var v ViolationRow
		if err := rows.Scan(&v.Code, &v.Kind, &v.Handle, &v.ID, &v.Field, &v.Value, &v.Reason, &v.Line); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArchive(s scanner) (*ArchiveRow, error) {
	var r ArchiveRow
	counts := make([]int, len(models.Kinds))
	dest := []any{&r.Path, &r.Checksum, &r.SchemaVersion}
	for i := range counts {
		dest = append(dest, &counts[i])
	}
	dest = append(dest, &r.ViolationCount, &r.ParseError, &r.UpdatedAt)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	r.Counts = make(map[models.Kind]int, len(models.Kinds))
	for i, k := range models.Kinds {
		r.Counts[k] = counts[i]
	}
	return &r, nil
}
