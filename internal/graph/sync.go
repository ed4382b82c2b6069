package graph

import (
	"log/slog"
	"path/filepath"

	"github.com/skaldra/notedown/internal/linkscan"
	"github.com/skaldra/notedown/internal/notename"
	"github.com/skaldra/notedown/internal/storage"
)

// Sync walks the vault and brings the graph up to date:
//   - new/changed files are scanned and upserted
//   - files removed from disk are deleted from the graph
//
// Per-file failures are logged and skipped.
func Sync(db LinkGraph, store storage.Provider, codec *notename.Codec, logger *slog.Logger) error {
	infos, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, fi := range infos {
		disk[fi.Path] = struct{}{}

		if checksums[fi.Path] == fi.Checksum {
			continue
		}

		data, err := store.Read(fi.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, codec, fi, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", fi.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile scans one note's aliases and links and upserts it.
func IndexFile(db LinkGraph, codec *notename.Codec, fi storage.FileInfo, data []byte) error {
	ids := codec.DecomposeFilename(filepath.Base(fi.Path))
	aliases := make([]Alias, len(ids))
	for i, id := range ids {
		aliases[i] = Alias{Key: id.Key, Display: id.Display}
	}
	title := ""
	if len(ids) > 0 {
		title = ids[0].Display
	}

	row := NoteRow{
		Path:      fi.Path,
		Title:     title,
		Checksum:  fi.Checksum,
		UpdatedAt: fi.UpdatedAt,
	}
	return db.UpsertNote(row, aliases, linkscan.Names(string(data)))
}
