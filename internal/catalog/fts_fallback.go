//go:build !sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/grampsxml/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over entities.label_key.
	return nil
}

func ftsInsert(_ *sql.Tx, _ string, _ []EntityRow) error {
	// Labels are already stored in the entities table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search performs a LIKE-based search over normalized labels and Gramps IDs
// (fallback when FTS5 is not compiled in). An empty kind matches every kind.
func (db *DB) Search(query string, kind models.Kind, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + likeEscaper.Replace(Key(query)) + "%"
	rows, err := db.conn.Query(`
		SELECT archive, handle, kind, gramps_id, label
		FROM entities
		WHERE (label_key LIKE ? ESCAPE '\' OR gramps_id = ?)
		  AND (? = '' OR kind = ?)
		ORDER BY archive, rowid
		LIMIT ?
	`, like, strings.TrimSpace(query), string(kind), string(kind), limit)
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
