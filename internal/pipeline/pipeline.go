// Package pipeline turns a card image sitting in the vault inbox into a
// contact note. One invocation is one image: read, pick the best rotation,
// extract a contact record, materialize the note with the image embedded,
// then retire the original. Failures abort the current image only.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/mannaz/internal/apperr"
	"github.com/starford/mannaz/internal/extract"
	"github.com/starford/mannaz/internal/imaging"
	"github.com/starford/mannaz/internal/index"
	"github.com/starford/mannaz/internal/models"
	"github.com/starford/mannaz/internal/notegen"
	"github.com/starford/mannaz/internal/storage"
)

// unknownContactName is the final fallback when neither the model nor the
// file name yields a usable contact name.
const unknownContactName = "Unknown Contact"

// failedRepliesDir receives raw model replies that could not be parsed,
// when keeping them is enabled.
const failedRepliesDir = ".failed"

// Extractor produces the model's raw text reply for a card image.
// *vision.Client satisfies this.
type Extractor interface {
	Describe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Selector picks the best-readable orientation of a card image.
// *rotation.Selector satisfies this.
type Selector interface {
	SelectBest(ctx context.Context, data []byte, mimeType string) (models.RotationCandidate, error)
}

// Notifier receives pipeline events: "image.detected", "contact.created",
// "pipeline.failed". Nil-safe via Pipeline.notify.
type Notifier func(kind string, data map[string]string)

// Config holds the pipeline's slice of the application configuration,
// passed explicitly so runs are deterministic under test.
type Config struct {
	APIKey            string
	DetectRotation    bool
	ContactsDir       string
	AttachmentsDir    string
	TrashOriginals    bool
	KeepFailedReplies bool
}

// Pipeline processes inbox images into contact notes.
type Pipeline struct {
	cfg       Config
	store     storage.Provider
	db        index.ContactIndex
	selector  Selector
	extractor Extractor
	notifier  Notifier
	logger    *slog.Logger
}

// New creates a pipeline. notifier may be nil.
func New(cfg Config, store storage.Provider, db index.ContactIndex, selector Selector, extractor Extractor, notifier Notifier, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     store,
		db:        db,
		selector:  selector,
		extractor: extractor,
		notifier:  notifier,
		logger:    logger,
	}
}

func (p *Pipeline) notify(kind string, data map[string]string) {
	if p.notifier != nil {
		p.notifier(kind, data)
	}
}

// ProcessImage runs the full pipeline for one inbox image (path relative to
// the vault root) and returns the created note path.
//
// Ordering invariant: the note is durably created before the original image
// leaves the inbox, so a failure mid-run can duplicate work but never lose
// the image.
func (p *Pipeline) ProcessImage(ctx context.Context, imagePath string) (string, error) {
	notePath, err := p.process(ctx, imagePath)
	if err != nil {
		p.logger.Error("pipeline: processing failed",
			slog.String("image", imagePath),
			slog.String("error", err.Error()))
		p.notify("pipeline.failed", map[string]string{"image": imagePath, "error": err.Error()})
		return "", err
	}
	p.logger.Info("pipeline: contact created",
		slog.String("image", imagePath),
		slog.String("note", notePath))
	p.notify("contact.created", map[string]string{"image": imagePath, "note": notePath})
	return notePath, nil
}

func (p *Pipeline) process(ctx context.Context, imagePath string) (string, error) {
	// No credential means no network call and no storage mutation.
	if p.cfg.APIKey == "" {
		return "", apperr.ErrMissingCredential
	}

	mimeType, ok := imaging.MIMEFromPath(imagePath)
	if !ok {
		return "", fmt.Errorf("pipeline: unsupported image type: %s", imagePath)
	}

	data, err := p.store.Read(imagePath)
	if err != nil {
		return "", err
	}

	p.notify("image.detected", map[string]string{"image": imagePath})

	best := models.RotationCandidate{Angle: 0, Data: data, MIMEType: mimeType}
	if p.cfg.DetectRotation {
		best, err = p.selector.SelectBest(ctx, data, mimeType)
		if err != nil {
			return "", err
		}
		p.logger.Debug("pipeline: rotation selected",
			slog.String("image", imagePath),
			slog.Int("angle", best.Angle),
			slog.Int("score", best.Score))
	}

	reply, err := p.extractor.Describe(ctx, best.Data, best.MIMEType)
	if err != nil {
		return "", err
	}

	rec, err := extract.Contact(reply)
	if err != nil {
		p.keepFailedReply(imagePath, err)
		return "", err
	}

	return p.materialize(imagePath, rec, best)
}

// materialize writes the attachment and note, indexes the contact, and
// retires the original inbox file, in that order.
func (p *Pipeline) materialize(imagePath string, rec *models.ContactRecord, best models.RotationCandidate) (string, error) {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		name = baseName(imagePath)
	}
	if strings.TrimSpace(name) == "" {
		name = unknownContactName
	}
	safe := notegen.SanitizeFileName(name)

	attachmentPath := notegen.ResolvePath(p.cfg.AttachmentsDir, safe, attachmentExt(imagePath, best.MIMEType), p.store.Exists)
	if err := p.store.Write(attachmentPath, best.Data); err != nil {
		return "", err
	}

	body := notegen.Compose(rec, path.Base(attachmentPath))
	notePath := notegen.ResolvePath(p.cfg.ContactsDir, safe, ".md", p.store.Exists)
	if err := p.store.Write(notePath, []byte(body)); err != nil {
		return "", err
	}

	if err := p.db.UpsertContact(index.ContactRow{
		NotePath:  notePath,
		Record:    *rec,
		ImagePath: attachmentPath,
		UpdatedAt: time.Now(),
	}); err != nil {
		p.logger.Warn("pipeline: index upsert failed",
			slog.String("note", notePath),
			slog.String("error", err.Error()))
	}

	// The note exists; only now may the original leave the inbox.
	if p.cfg.TrashOriginals {
		if _, err := p.store.Trash(imagePath); err != nil {
			return "", err
		}
	} else if err := p.store.Delete(imagePath); err != nil {
		return "", err
	}

	return notePath, nil
}

// keepFailedReply persists the unparseable model output for diagnosis.
func (p *Pipeline) keepFailedReply(imagePath string, err error) {
	if !p.cfg.KeepFailedReplies {
		return
	}
	var pe *apperr.JSONParseError
	if !errors.As(err, &pe) {
		return
	}
	target := failedRepliesDir + "/" + baseName(imagePath) + ".txt"
	content := "candidate:\n" + pe.Candidate + "\n\nraw reply:\n" + pe.Raw + "\n"
	if werr := p.store.Write(target, []byte(content)); werr != nil {
		p.logger.Warn("pipeline: keep failed reply", slog.String("error", werr.Error()))
	}
}

// baseName returns the file name without directory or extension.
func baseName(p string) string {
	b := path.Base(p)
	return strings.TrimSuffix(b, path.Ext(b))
}

// attachmentExt keeps the original extension when the winning buffer still
// has the original MIME type, and follows the re-encoded type otherwise
// (WebP rotations come back as PNG).
func attachmentExt(imagePath, mimeType string) string {
	if orig, ok := imaging.MIMEFromPath(imagePath); ok && orig == mimeType {
		return strings.ToLower(path.Ext(imagePath))
	}
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	default:
		return strings.ToLower(path.Ext(imagePath))
	}
}
