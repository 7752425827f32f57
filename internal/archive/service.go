// Package archive imports, exports and validates the Gramps XML archives of
// the archive directory and keeps the catalog in step with them.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/grampsxml/internal/apperr"
	"github.com/starford/grampsxml/internal/catalog"
	"github.com/starford/grampsxml/internal/checksum"
	"github.com/starford/grampsxml/internal/grampsxml"
	"github.com/starford/grampsxml/internal/models"
	"github.com/starford/grampsxml/internal/storage"
	"github.com/starford/grampsxml/internal/validator"
)

var errNoCatalog = errors.New("archive: catalog not configured")

// Detail is the full representation of an archive.
type Detail struct {
	Path       string               `json:"path"`
	Checksum   string               `json:"checksum"`
	Document   *models.Document     `json:"document"`
	Violations validator.Violations `json:"violations"`
}

// Report is the validation outcome of one archive file.
type Report struct {
	Path          string               `json:"path"`
	Checksum      string               `json:"checksum"`
	SchemaVersion string               `json:"schema_version,omitempty"`
	Counts        map[models.Kind]int  `json:"counts,omitempty"`
	Violations    validator.Violations `json:"violations"`
	ParseError    string               `json:"parse_error,omitempty"`
}

// Valid reports whether the archive parsed and has no violations.
func (r *Report) Valid() bool {
	return r.ParseError == "" && len(r.Violations) == 0
}

// Option configures a Service.
type Option func(*Service)

// WithValidator sets the validator; use it to enable the schema pass.
func WithValidator(v *validator.Validator) Option {
	return func(s *Service) { s.validator = v }
}

// WithSerializer sets the serializer used for exports.
func WithSerializer(sr *grampsxml.Serializer) Option {
	return func(s *Service) { s.serializer = sr }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithWorkers bounds the number of archives validated concurrently by
// ValidateAll.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithNotifier sets a callback invoked after the service itself changes an
// archive, with the same kinds the catalog watcher reports.
func WithNotifier(cb catalog.EventCallback) Option {
	return func(s *Service) { s.notify = cb }
}

// Service coordinates storage, the Gramps XML engine and the catalog.
// The catalog is optional; without it the service only touches files.
type Service struct {
	store      storage.Provider
	db         catalog.Catalog
	validator  *validator.Validator
	serializer *grampsxml.Serializer
	logger     *slog.Logger
	notify     catalog.EventCallback
	workers    int
}

var _ catalog.Analyzer = (*Service)(nil)

// NewService creates a new archive service. db may be nil.
func NewService(store storage.Provider, db catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		db:      db,
		logger:  slog.Default(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.serializer == nil {
		s.serializer = grampsxml.NewSerializer()
	}
	if s.validator == nil {
		s.validator = validator.New(validator.WithSerializer(s.serializer))
	}
	return s
}

// Strict reports whether validation includes the schema pass.
func (s *Service) Strict() bool {
	return s.validator.Strict()
}

// ImportFile reads, parses and validates the archive at path. Data-quality
// problems come back as violations; a missing file or malformed XML fails.
// The catalog record of path is refreshed as a side effect.
func (s *Service) ImportFile(_ context.Context, path string) (*models.Document, validator.Violations, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, nil, err
	}
	doc, vs, err := s.Check(data)
	if err != nil {
		s.record(newRecord(path, data, nil, nil, err))
		return nil, nil, fmt.Errorf("archive: import %s: %w", path, err)
	}
	s.record(newRecord(path, data, doc, vs, nil))
	return doc, vs, nil
}

// ExportFile serializes doc and writes it to path atomically: either the
// whole new archive is in place or the previous file is untouched. .gramps
// archives are written gzip-compressed, any other name as plain XML. With a
// catalog configured only .gramps and .xml paths are accepted.
func (s *Service) ExportFile(_ context.Context, path string, doc *models.Document) error {
	_, err := s.export(path, doc)
	return err
}

func (s *Service) export(path string, doc *models.Document) ([]byte, error) {
	if s.db != nil && !storage.IsArchive(path) {
		return nil, fmt.Errorf("archive: %w: %s is not a .gramps or .xml file", apperr.ErrInvalidPath, path)
	}
	xmlText, err := s.serializer.Serialize(doc)
	if err != nil {
		return nil, fmt.Errorf("archive: serialize %s: %w", path, err)
	}
	data, err := Encode(path, xmlText)
	if err != nil {
		return nil, err
	}
	existed, err := s.store.Exists(path)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	if s.db != nil {
		if err := catalog.Index(s.db, s, path, data); err != nil {
			s.logger.Warn("archive: catalog failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	if existed {
		s.changed("updated", path)
	} else {
		s.changed("created", path)
	}
	return data, nil
}

// Get reads and validates an archive.
func (s *Service) Get(ctx context.Context, path string) (*Detail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	return s.detail(path, data)
}

// Create exports doc to a new archive at path.
func (s *Service) Create(_ context.Context, path string, doc *models.Document) (*Detail, error) {
	ok, err := s.store.Exists(path)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, fmt.Errorf("archive: %s: %w", path, apperr.ErrAlreadyExists)
	}
	data, err := s.export(path, doc)
	if err != nil {
		return nil, err
	}
	return s.detail(path, data)
}

// Update replaces an existing archive with optimistic concurrency: when
// ifMatch is set it must equal the checksum of the file on disk.
func (s *Service) Update(_ context.Context, path string, doc *models.Document, ifMatch string) (*Detail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, fmt.Errorf("archive: %s: %w", path, apperr.ErrConflict)
	}
	data, err := s.export(path, doc)
	if err != nil {
		return nil, err
	}
	return s.detail(path, data)
}

// Delete removes an archive from storage and catalog.
func (s *Service) Delete(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	if s.db != nil {
		if err := s.db.DeleteArchive(path); err != nil {
			return err
		}
	}
	s.changed("deleted", path)
	return nil
}

// ValidateFile validates the archive at path and refreshes its catalog
// record. Malformed XML is reported in the result, not as an error.
func (s *Service) ValidateFile(_ context.Context, path string) (*Report, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	doc, vs, err := s.Check(data)
	if err != nil && !errors.Is(err, apperr.ErrMalformed) {
		return nil, err
	}
	rec := newRecord(path, data, doc, vs, err)
	s.record(rec)
	return &Report{
		Path:          path,
		Checksum:      rec.Checksum,
		SchemaVersion: rec.SchemaVersion,
		Counts:        rec.Counts,
		Violations:    nonNil(vs),
		ParseError:    rec.ParseError,
	}, nil
}

// ValidateAll validates every archive of the archive directory with at most
// the configured number of workers. Reports are in listing order.
func (s *Service) ValidateAll(ctx context.Context) ([]Report, error) {
	metas, err := s.store.List("")
	if err != nil {
		return nil, err
	}
	reports := make([]Report, len(metas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, m := range metas {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.ValidateFile(gctx, m.Path)
			if err != nil {
				return err
			}
			reports[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Info("archive: validated", slog.Int("archives", len(reports)))
	return reports, nil
}

// Check parses and validates the raw bytes of an archive file, which may be
// gzip-compressed. Malformed input fails with an error matching
// apperr.ErrMalformed.
func (s *Service) Check(data []byte) (*models.Document, validator.Violations, error) {
	xmlText, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return s.validator.ValidateBytes(xmlText)
}

// Validate checks a document held in memory.
func (s *Service) Validate(doc *models.Document) validator.Violations {
	return nonNil(s.validator.Validate(doc))
}

// Serialize renders doc as Gramps XML text.
func (s *Service) Serialize(doc *models.Document) ([]byte, error) {
	return s.serializer.Serialize(doc)
}

// Analyze implements catalog.Analyzer.
func (s *Service) Analyze(path string, data []byte) (*catalog.Record, error) {
	doc, vs, err := s.Check(data)
	if err != nil && !errors.Is(err, apperr.ErrMalformed) {
		return nil, err
	}
	return newRecord(path, data, doc, vs, err), nil
}

// List returns one page of cataloged archives.
func (s *Service) List(_ context.Context, limit, offset int, sort string) ([]catalog.ArchiveRow, int, error) {
	if s.db == nil {
		return nil, 0, errNoCatalog
	}
	return s.db.ListArchives(limit, offset, sort)
}

// Summary returns the catalog summary of one archive.
func (s *Service) Summary(_ context.Context, path string) (*catalog.ArchiveRow, error) {
	if s.db == nil {
		return nil, errNoCatalog
	}
	return s.db.GetArchive(path)
}

// Violations returns the last stored validation report of an archive.
func (s *Service) Violations(_ context.Context, path string) ([]catalog.ViolationRow, error) {
	if s.db == nil {
		return nil, errNoCatalog
	}
	if _, err := s.db.GetArchive(path); err != nil {
		return nil, err
	}
	vs, err := s.db.Violations(path)
	return nonNil(vs), err
}

// Search finds entities by label or Gramps ID across all archives.
func (s *Service) Search(_ context.Context, query string, kind models.Kind, limit int) ([]catalog.SearchResult, error) {
	if s.db == nil {
		return nil, errNoCatalog
	}
	res, err := s.db.Search(query, kind, limit)
	return nonNil(res), err
}

// Sync reconciles the catalog with the archive directory.
func (s *Service) Sync() error {
	if s.db == nil {
		return errNoCatalog
	}
	return catalog.Sync(s.db, s.store, s, s.logger)
}

// Watch keeps the catalog in step with changes under root until ctx is done.
func (s *Service) Watch(ctx context.Context, root string, cb catalog.EventCallback) error {
	if s.db == nil {
		return errNoCatalog
	}
	return catalog.Watch(ctx, s.db, s.store, s, root, s.logger, cb)
}

func (s *Service) changed(kind, path string) {
	if s.notify != nil {
		s.notify(kind, path)
	}
}

func (s *Service) record(rec *catalog.Record) {
	if s.db == nil {
		return
	}
	if err := s.db.UpsertArchive(rec); err != nil {
		s.logger.Warn("archive: catalog failed", slog.String("path", rec.Path), slog.String("error", err.Error()))
	}
}

func (s *Service) detail(path string, data []byte) (*Detail, error) {
	doc, vs, err := s.Check(data)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Path:       path,
		Checksum:   checksum.Sum(data),
		Document:   doc,
		Violations: nonNil(vs),
	}, nil
}

// newRecord builds the catalog record of an archive. parseErr, when set,
// replaces the document summary.
func newRecord(path string, data []byte, doc *models.Document, vs validator.Violations, parseErr error) *catalog.Record {
	rec := &catalog.Record{ArchiveRow: catalog.ArchiveRow{
		Path:      path,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now().UTC(),
	}}
	if parseErr != nil {
		rec.ParseError = parseErr.Error()
		return rec
	}
	rec.SchemaVersion = doc.SchemaVersion
	rec.Counts = doc.Counts()
	rec.Entities = entities(doc)
	rec.Violations = make([]catalog.ViolationRow, len(vs))
	for i, v := range vs {
		rec.Violations[i] = catalog.ViolationRow{
			Code:   string(v.Code),
			Kind:   string(v.Kind),
			Handle: v.Handle,
			ID:     v.ID,
			Field:  v.Field,
			Value:  v.Value,
			Reason: v.Reason,
			Line:   v.Line,
		}
	}
	return rec
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
