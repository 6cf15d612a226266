package index

import (
	"errors"
	"log/slog"

	"github.com/starford/eduhub/internal/apperr"
	"github.com/starford/eduhub/internal/catalog"
	"github.com/starford/eduhub/internal/storage"
)

// Sync walks the content root and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk, or no longer classifiable, are deleted
func Sync(db ContentIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	var indexed, removed int
	for _, m := range metas {
		if cs, ok := checksums[m.Path]; ok && cs == m.Checksum {
			disk[m.Path] = struct{}{}
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			disk[m.Path] = struct{}{}
			continue
		}
		if err := indexFile(db, store.Root(), m.Path, data); err != nil {
			if errors.Is(err, apperr.ErrUnclassified) {
				logger.Debug("sync: skipped", slog.String("path", m.Path), slog.String("reason", "unclassified"))
				continue
			}
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			indexed++
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
		disk[m.Path] = struct{}{}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteItem(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				removed++
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	logger.Info("sync: done", slog.Int("files", len(metas)), slog.Int("indexed", indexed), slog.Int("removed", removed))
	return nil
}

// indexFile parses data and upserts it into the DB. rel is relative to root.
func indexFile(db ContentIndex, root, rel string, data []byte) error {
	p, err := catalog.ParseItem(catalog.AbsPath(root, rel), rel, data)
	if err != nil {
		return err
	}
	return db.UpsertItem(p.Item, p.Body)
}
