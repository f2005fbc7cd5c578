// Package watch runs the fsnotify watcher on the vault inbox and feeds
// newly settled card images to the ingestion pipeline.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/mannaz/internal/imaging"
)

// DefaultSettle is how long a file must stay quiet before it is handed to
// the pipeline. Scanners and sync clients write images in bursts; firing on
// the first Write would process a half-copied file.
const DefaultSettle = 500 * time.Millisecond

// ProcessFunc receives a vault-relative image path once its file settled.
type ProcessFunc func(ctx context.Context, relPath string)

// Watcher turns inbox file events into pipeline invocations.
type Watcher struct {
	vaultRoot string
	inboxRel  string
	settle    time.Duration
	process   ProcessFunc
	logger    *slog.Logger
}

// New creates a watcher for vaultRoot's inbox directory (inboxRel is
// relative to the vault root). settle <= 0 selects DefaultSettle.
func New(vaultRoot, inboxRel string, settle time.Duration, process ProcessFunc, logger *slog.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		vaultRoot: vaultRoot,
		inboxRel:  inboxRel,
		settle:    settle,
		process:   process,
		logger:    logger,
	}
}

// Run watches the inbox until ctx is cancelled. Images already present at
// startup are processed first, so a backlog accumulated while the daemon
// was down is not lost.
func (wt *Watcher) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	inboxAbs := filepath.Join(wt.vaultRoot, filepath.FromSlash(wt.inboxRel))
	if err := w.Add(inboxAbs); err != nil {
		return err
	}

	wt.logger.Info("watcher: started", slog.String("inbox", wt.inboxRel))

	wt.processBacklog(ctx, inboxAbs)

	// pending holds one settle timer per in-flight path. The timers fire
	// into settledCh so the loop below stays the sole owner of the map.
	pending := make(map[string]*time.Timer)
	settledCh := make(chan string, 64)

	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			wt.logger.Info("watcher: stopped")
			return nil

		case abs := <-settledCh:
			delete(pending, abs)
			wt.handle(ctx, abs)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs := ev.Name
			if !imaging.IsImagePath(abs) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if t, exists := pending[abs]; exists {
					t.Reset(wt.settle)
					continue
				}
				abs := abs
				pending[abs] = time.AfterFunc(wt.settle, func() {
					select {
					case settledCh <- abs:
					case <-ctx.Done():
					}
				})

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// The pipeline itself retires originals, which shows up
				// here as a Remove; dropping the timer keeps us from
				// chasing files that are already gone.
				if t, exists := pending[abs]; exists {
					t.Stop()
					delete(pending, abs)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			wt.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// processBacklog hands every image already sitting in the inbox to the
// pipeline, oldest path order first.
func (wt *Watcher) processBacklog(ctx context.Context, inboxAbs string) {
	_ = filepath.WalkDir(inboxAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !imaging.IsImagePath(path) {
			return nil
		}
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		wt.handle(ctx, path)
		return nil
	})
}

func (wt *Watcher) handle(ctx context.Context, abs string) {
	rel, err := filepath.Rel(wt.vaultRoot, abs)
	if err != nil {
		wt.logger.Warn("watcher: path outside vault", slog.String("path", abs))
		return
	}
	rel = filepath.ToSlash(rel)
	wt.logger.Debug("watcher: image settled", slog.String("path", rel))
	wt.process(ctx, rel)
}
