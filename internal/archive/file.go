package archive

import (
	"context"
	"path/filepath"

	"github.com/starford/grampsxml/internal/models"
	"github.com/starford/grampsxml/internal/storage"
	"github.com/starford/grampsxml/internal/validator"
)

// ImportFile reads, parses and validates a Gramps archive on the local file
// system. A missing file fails with apperr.ErrNotFound and malformed XML with
// apperr.ErrMalformed; every other defect is returned as a violation.
func ImportFile(path string, opts ...Option) (*models.Document, validator.Violations, error) {
	svc, name, err := local(path, opts)
	if err != nil {
		return nil, nil, err
	}
	return svc.ImportFile(context.Background(), name)
}

// ExportFile writes doc to path on the local file system, atomically.
// The parent directory must exist. Paths ending in .gramps are written
// gzip-compressed; any other extension gets plain XML.
func ExportFile(path string, doc *models.Document, opts ...Option) error {
	svc, name, err := local(path, opts)
	if err != nil {
		return err
	}
	return svc.ExportFile(context.Background(), name, doc)
}

func local(path string, opts []Option) (*Service, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	store, err := storage.NewFS(filepath.Dir(abs))
	if err != nil {
		return nil, "", err
	}
	return NewService(store, nil, opts...), filepath.Base(abs), nil
}
