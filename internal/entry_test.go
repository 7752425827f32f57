package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/grampsxml/internal/apperr"
	"github.com/starford/grampsxml/internal/testutil"
)

func TestNewValidator(t *testing.T) {
	v, err := NewValidator(SchemaConfig{Path: "ignored.xsd"})
	if err != nil {
		t.Fatalf("lenient: %v", err)
	}
	if v.Strict() {
		t.Error("lenient validator should not run the schema pass")
	}

	_, err = NewValidator(SchemaConfig{Strict: true, Path: filepath.Join(t.TempDir(), "missing.xsd")})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Archive.Path = filepath.Join(dir, "archives")
	cfg.Archive.Workers = 2
	cfg.SQLite.Path = filepath.Join(dir, "catalog.db")

	if err := os.MkdirAll(cfg.Archive.Path, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Archive.Path, "tree.xml"), testutil.Sample(t), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Archive.Path, "broken.xml"), []byte("<database>"), 0o644); err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	reports, err := RunBatch(context.Background(), WithConfig(cfg), WithLogOutput(&logs))
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}
	valid := 0
	for _, r := range reports {
		if r.Valid() {
			valid++
		}
	}
	if valid != 1 {
		t.Errorf("valid = %d, want 1", valid)
	}
	if logs.Len() == 0 {
		t.Error("expected structured logs")
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if _, err := RunBatch(context.Background()); err == nil {
		t.Error("RunBatch without config should fail")
	}
	if err := Run(context.Background()); err == nil {
		t.Error("Run without config should fail")
	}
}
