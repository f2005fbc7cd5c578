// Package contactservice coordinates storage and index operations for
// the API and MCP surfaces.
package contactservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/starford/mannaz/internal/apperr"
	"github.com/starford/mannaz/internal/checksum"
	"github.com/starford/mannaz/internal/imaging"
	"github.com/starford/mannaz/internal/index"
	"github.com/starford/mannaz/internal/models"
	"github.com/starford/mannaz/internal/notegen"
	"github.com/starford/mannaz/internal/storage"
)

// maxUploadBytes bounds a single inbox upload.
const maxUploadBytes = 50 << 20 // 50 MB

// ContactDetail is the full representation of a contact. Checksum covers
// the note body, so clients can detect out-of-band edits.
type ContactDetail struct {
	NotePath  string               `json:"path"`
	Record    models.ContactRecord `json:"record"`
	ImagePath string               `json:"image_path"`
	Content   string               `json:"content"`
	Checksum  string               `json:"checksum"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ContactListItem is a lightweight item in a list response.
type ContactListItem struct {
	NotePath  string    `json:"path"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	ImagePath string    `json:"image_path"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store          storage.Provider
	db             *index.DB
	inboxDir       string
	attachmentsDir string
}

// NewService creates a new contact service. inboxDir and attachmentsDir
// are vault-relative.
func NewService(store storage.Provider, db *index.DB, inboxDir, attachmentsDir string) *Service {
	return &Service{store: store, db: db, inboxDir: inboxDir, attachmentsDir: attachmentsDir}
}

// GetContact returns one contact with its note body.
func (s *Service) GetContact(_ context.Context, notePath string) (*ContactDetail, error) {
	row, err := s.db.GetContact(notePath)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.ErrNotFound
	}
	data, err := s.store.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &ContactDetail{
		NotePath:  row.NotePath,
		Record:    row.Record,
		ImagePath: row.ImagePath,
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// ListContacts returns paginated contacts ordered by name.
func (s *Service) ListContacts(_ context.Context, limit, offset int) ([]ContactListItem, int, error) {
	rows, total, err := s.db.ListContacts(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ContactListItem, len(rows))
	for i, r := range rows {
		items[i] = ContactListItem{
			NotePath:  r.NotePath,
			Name:      r.Record.Name,
			Company:   r.Record.Company,
			Position:  r.Record.Position,
			ImagePath: r.ImagePath,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// DeleteContact removes the note, its card image, and the index row.
// The attachment removal is best effort; a shared image must not block
// deleting the contact.
func (s *Service) DeleteContact(_ context.Context, notePath string) error {
	row, err := s.db.GetContact(notePath)
	if err != nil {
		return err
	}
	if row == nil {
		return apperr.ErrNotFound
	}
	if err := s.store.Delete(notePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if img := s.resolveImagePath(row.ImagePath); img != "" && s.store.Exists(img) {
		_ = s.store.Delete(img)
	}
	return s.db.DeleteContact(notePath)
}

// UploadImage stores an uploaded card image in the inbox and returns its
// vault-relative path. The watcher picks it up from there; the upload
// itself never blocks on inference.
func (s *Service) UploadImage(_ context.Context, filename string, r io.Reader) (string, error) {
	base, ext, err := splitUploadName(filename)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("contactservice: read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return "", fmt.Errorf("contactservice: upload exceeds %d bytes", maxUploadBytes)
	}

	target := notegen.ResolvePath(s.inboxDir, base, ext, s.store.Exists)
	if err := s.store.Write(target, data); err != nil {
		return "", err
	}
	return target, nil
}

// resolveImagePath normalizes index image paths: the pipeline stores them
// vault-relative, vault sync stores the bare embed name.
func (s *Service) resolveImagePath(img string) string {
	if img == "" || strings.Contains(img, "/") {
		return img
	}
	return s.attachmentsDir + "/" + img
}

// splitUploadName validates an uploaded file name and splits it into a
// sanitized base and a recognized image extension.
func splitUploadName(filename string) (base, ext string, err error) {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "" || name == "." || strings.Contains(name, "..") {
		return "", "", fmt.Errorf("contactservice: invalid filename: %q", filename)
	}
	if !imaging.IsImagePath(name) {
		return "", "", fmt.Errorf("contactservice: unsupported image type: %q", filename)
	}
	ext = strings.ToLower(path.Ext(name))
	base = notegen.SanitizeFileName(strings.TrimSuffix(name, path.Ext(name)))
	return base, ext, nil
}
