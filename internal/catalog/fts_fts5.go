//go:build sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/grampsxml/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS entities_fts USING fts5(
			archive UNINDEXED,
			handle UNINDEXED,
			kind UNINDEXED,
			gramps_id,
			label,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, archive string, entities []EntityRow) error {
	stmt, err := tx.Prepare(`INSERT INTO entities_fts (archive, handle, kind, gramps_id, label) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare fts insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range entities {
		if _, err := stmt.Exec(archive, e.Handle, string(e.Kind), e.ID, e.Label); err != nil {
			return fmt.Errorf("catalog: insert fts: %w", err)
		}
	}
	return nil
}

func ftsDelete(tx *sql.Tx, archive string) {
	_, _ = tx.Exec(`DELETE FROM entities_fts WHERE archive = ?`, archive)
}

// Search performs an FTS5 full-text search over entity labels and Gramps IDs.
// The query is matched as a phrase. An empty kind matches every kind.
func (db *DB) Search(query string, kind models.Kind, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	phrase := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
	rows, err := db.conn.Query(`
		SELECT archive, handle, kind, gramps_id, label
		FROM entities_fts
		WHERE entities_fts MATCH ?
		  AND (? = '' OR kind = ?)
		ORDER BY rank
		LIMIT ?
	`, phrase, string(kind), string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Archive, &r.Handle, &r.Kind, &r.ID, &r.Label); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
