//go:build sqlite_fts5

package catalog

import "testing"

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entities_fts`).Scan(&count); err != nil {
		t.Fatalf("entities_fts table missing: %v", err)
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertArchive(sampleRecord("gone.gramps", "g"))
	_ = db.DeleteArchive("gone.gramps")

	var count int
	_ = db.conn.QueryRow(`SELECT count(*) FROM entities_fts WHERE archive = ?`, "gone.gramps").Scan(&count)
	if count != 0 {
		t.Errorf("deleted archive still has %d fts rows", count)
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertArchive(sampleRecord("evo.gramps", "1"))
	rec := sampleRecord("evo.gramps", "2")
	rec.Entities[1].Label = "Jane Doe"
	_ = db.UpsertArchive(rec)

	if results, _ := db.Search("smith", "", 10); len(results) != 0 {
		t.Errorf("old FTS content should be gone: %+v", results)
	}
	if results, _ := db.Search("doe", "", 10); len(results) != 1 {
		t.Errorf("FTS not updated: %+v", results)
	}
}
