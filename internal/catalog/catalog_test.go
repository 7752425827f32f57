package catalog

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/grampsxml/internal/apperr"
	"github.com/starford/grampsxml/internal/grampsxml"
	"github.com/starford/grampsxml/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "grampsxml-catalog-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// docAnalyzer catalogs an archive by parsing it; labels are the entry
// labels plus, for people, the primary name.
type docAnalyzer struct{}

func (docAnalyzer) Analyze(_ string, data []byte) (*Record, error) {
	rec := &Record{}
	doc, err := grampsxml.Parse(data)
	if err != nil {
		rec.ParseError = err.Error()
		return rec, nil
	}
	rec.SchemaVersion = doc.SchemaVersion
	rec.Counts = doc.Counts()
	for _, e := range doc.Entries() {
		label := e.Label()
		if e.Kind == models.KindPerson {
			if n, ok := doc.People[e.Position].Primary(); ok {
				label = n.First + " " + n.Surname
			}
		}
		rec.Entities = append(rec.Entities, EntityRow{Handle: e.Handle, Kind: e.Kind, ID: e.ID, Label: label})
	}
	return rec, nil
}

func sampleRecord(path, cs string) *Record {
	return &Record{
		ArchiveRow: ArchiveRow{
			Path:          path,
			Checksum:      cs,
			SchemaVersion: "1.7.2",
			Counts:        map[models.Kind]int{models.KindPerson: 2, models.KindNote: 1},
			UpdatedAt:     time.Now().UTC(),
		},
		Entities: []EntityRow{
			{Handle: "_p1", Kind: models.KindPerson, ID: "I0001", Label: "Zoë Brontë"},
			{Handle: "_p2", Kind: models.KindPerson, ID: "I0002", Label: "John Smith"},
			{Handle: "_n1", Kind: models.KindNote, ID: "N0001", Label: "note N0001"},
		},
		Violations: []ViolationRow{
			{Code: "unresolved_reference", Kind: "family", Handle: "_f1", Field: "mother", Value: "_p9", Reason: "mother reference _p9 does not resolve to any person"},
			{Code: "invalid_enum", Kind: "person", Handle: "_p2", Field: "gender", Value: "X", Reason: `gender "X" must be one of M, F, U`},
		},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"archives", "entities", "violations"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndGetArchive(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertArchive(sampleRecord("tree.gramps", "abc123")); err != nil {
		t.Fatalf("UpsertArchive: %v", err)
	}
	cs, err := db.GetChecksum("tree.gramps")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}

	row, err := db.GetArchive("tree.gramps")
	if err != nil {
		t.Fatalf("GetArchive: %v", err)
	}
	if row.Counts[models.KindPerson] != 2 || row.Counts[models.KindNote] != 1 || row.Counts[models.KindTag] != 0 {
		t.Errorf("counts = %v", row.Counts)
	}
	if row.ViolationCount != 2 {
		t.Errorf("violations = %d, want 2", row.ViolationCount)
	}
	if row.SchemaVersion != "1.7.2" {
		t.Errorf("schema version = %q", row.SchemaVersion)
	}
}

func TestGetArchive_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetArchive("nope.gramps")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.gramps")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestViolationsKeepReportOrder(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertArchive(sampleRecord("tree.gramps", "1"))

	vs, err := db.Violations("tree.gramps")
	if err != nil {
		t.Fatalf("Violations: %v", err)
	}
	if len(vs) != 2 {
		t.Fatalf("len = %d, want 2", len(vs))
	}
	if vs[0].Code != "unresolved_reference" || vs[1].Code != "invalid_enum" {
		t.Errorf("order = %s, %s", vs[0].Code, vs[1].Code)
	}
	if vs[0].Value != "_p9" {
		t.Errorf("value = %q", vs[0].Value)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertArchive(sampleRecord("up.gramps", "1"))

	rec := sampleRecord("up.gramps", "2")
	rec.Entities = rec.Entities[:1]
	rec.Violations = nil
	if err := db.UpsertArchive(rec); err != nil {
		t.Fatalf("UpsertArchive: %v", err)
	}

	vs, _ := db.Violations("up.gramps")
	if len(vs) != 0 {
		t.Errorf("old violations should be removed, got %d", len(vs))
	}
	res, _ := db.Search("smith", "", 10)
	if len(res) != 0 {
		t.Errorf("old entities should be removed, got %+v", res)
	}
	row, _ := db.GetArchive("up.gramps")
	if row.Checksum != "2" || row.ViolationCount != 0 {
		t.Errorf("row = %+v", row)
	}
}

func TestDeleteArchive(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertArchive(sampleRecord("del.gramps", "x"))

	if err := db.DeleteArchive("del.gramps"); err != nil {
		t.Fatalf("DeleteArchive: %v", err)
	}
	if cs, _ := db.GetChecksum("del.gramps"); cs != "" {
		t.Errorf("deleted archive still has checksum %q", cs)
	}
	if vs, _ := db.Violations("del.gramps"); len(vs) != 0 {
		t.Errorf("expected no violations after delete, got %d", len(vs))
	}
	if res, _ := db.Search("john", "", 10); len(res) != 0 {
		t.Errorf("expected no entities after delete, got %d", len(res))
	}
}

func TestListArchives(t *testing.T) {
	db := testDB(t)
	a := sampleRecord("b.gramps", "1")
	a.Violations = a.Violations[:1]
	_ = db.UpsertArchive(a)
	_ = db.UpsertArchive(sampleRecord("a.gramps", "2"))
	_ = db.UpsertArchive(sampleRecord("c.xml", "3"))

	rows, total, err := db.ListArchives(2, 0, "")
	if err != nil {
		t.Fatalf("ListArchives: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(rows) != 2 || rows[0].Path != "a.gramps" || rows[1].Path != "b.gramps" {
		t.Errorf("page = %+v", rows)
	}

	rows, _, _ = db.ListArchives(10, 2, "path")
	if len(rows) != 1 || rows[0].Path != "c.xml" {
		t.Errorf("offset page = %+v", rows)
	}

	rows, _, _ = db.ListArchives(10, 0, "violations")
	if rows[len(rows)-1].Path != "b.gramps" {
		t.Errorf("violations sort: last = %s, want b.gramps", rows[len(rows)-1].Path)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertArchive(sampleRecord("s.gramps", "1"))

	results, err := db.Search("smith", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Handle != "_p2" || results[0].Archive != "s.gramps" {
		t.Errorf("search results = %+v, want 1 hit for _p2", results)
	}
}

func TestSearch_IgnoresDiacritics(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertArchive(sampleRecord("s.gramps", "1"))

	results, err := db.Search("Bronte", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Label != "Zoë Brontë" {
		t.Errorf("search results = %+v", results)
	}
}

func TestSearch_KindFilter(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertArchive(sampleRecord("s.gramps", "1"))

	results, _ := db.Search("N0001", models.KindPerson, 10)
	if len(results) != 0 {
		t.Errorf("kind filter ignored: %+v", results)
	}
	results, _ = db.Search("N0001", models.KindNote, 10)
	if len(results) != 1 || results[0].Kind != models.KindNote {
		t.Errorf("results = %+v", results)
	}
}

func TestKey(t *testing.T) {
	cases := map[string]string{
		"Zoë  Brontë":   "zoe bronte",
		"  ÅSA Öberg ":  "asa oberg",
		"plain":         "plain",
		"":              "",
		"Ольга Петрова": "ольга петрова",
	}
	for in, want := range cases {
		if got := Key(in); got != want {
			t.Errorf("Key(%q) = %q, want %q", in, got, want)
		}
	}
}
