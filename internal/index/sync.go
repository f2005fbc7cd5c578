package index

import (
	"log/slog"
	"path"
	"strings"

	"github.com/starford/mannaz/internal/notegen"
	"github.com/starford/mannaz/internal/storage"
)

// Sync walks the contacts folder and brings the index up to date:
//   - notes following the contact layout are parsed and upserted
//   - rows whose notes are gone from disk are deleted
//
// Notes that do not parse as contact notes are skipped; the vault may hold
// hand-written notes next to generated ones.
func Sync(db *DB, store storage.Provider, contactsDir string, logger *slog.Logger) error {
	metas, err := store.ListExt(contactsDir, ".md")
	if err != nil {
		return err
	}

	indexed, err := db.AllPaths()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		rec, embed, ok := notegen.ParseNote(string(data))
		if !ok {
			logger.Debug("sync: skipping non-contact note", slog.String("path", m.Path))
			continue
		}
		// The display name lives in the note's file name.
		rec.Name = strings.TrimSuffix(path.Base(m.Path), ".md")
		if err := db.UpsertContact(ContactRow{
			NotePath:  m.Path,
			Record:    *rec,
			ImagePath: embed,
			UpdatedAt: m.UpdatedAt,
		}); err != nil {
			logger.Warn("sync: upsert failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
	}

	for p := range indexed {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteContact(p); err != nil {
			logger.Warn("sync: delete stale failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	return nil
}
