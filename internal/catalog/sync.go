package catalog

import (
	"log/slog"
	"time"

	"github.com/starford/grampsxml/internal/checksum"
	"github.com/starford/grampsxml/internal/storage"
)

// Sync walks the archive directory and brings the catalog up to date:
//   - new/changed archives are analyzed and upserted
//   - archives removed from disk are deleted from the catalog
//
// Archives that fail to parse are still cataloged, with their parse error,
// so an unchanged broken file is not analyzed again on every pass.
func Sync(db Catalog, store storage.Provider, analyzer Analyzer, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, analyzer, m.Path, data); err != nil {
			logger.Warn("sync: catalog failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: cataloged", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteArchive(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// Index analyzes data and upserts the resulting record for path.
func Index(db Catalog, analyzer Analyzer, path string, data []byte) error {
	return indexFile(db, analyzer, path, data)
}

func indexFile(db Catalog, analyzer Analyzer, path string, data []byte) error {
	rec, err := analyzer.Analyze(path, data)
	if err != nil {
		return err
	}
	rec.Path = path
	if rec.Checksum == "" {
		rec.Checksum = checksum.Sum(data)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	return db.UpsertArchive(rec)
}
