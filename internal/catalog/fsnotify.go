package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
)

// FileTrigger reports catalog changes from filesystem notifications.
//
// It watches the parent directory rather than the file so that editors
// which write a temp file and rename it over the catalog are still seen.
// Events are not debounced; each one becomes a Change.
type FileTrigger struct {
	path   string
	logger *zerolog.Logger
}

// NewFileTrigger creates a trigger for path.
func NewFileTrigger(path string, logger *zerolog.Logger) *FileTrigger {
	return &FileTrigger{path: path, logger: logger}
}

// Start begins watching. It fails if the parent directory cannot be watched.
func (t *FileTrigger) Start(ctx context.Context) (<-chan Change, error) {
	target, err := filepath.Abs(t.path)
	if err != nil {
		return nil, pkgerrors.WrapIO("watch", t.path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, pkgerrors.WrapIO("watch", t.path, err)
	}

	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, pkgerrors.WrapIO("watch", dir, err)
	}

	t.logger.Debug().Str("path", target).Str("dir", dir).Msg("Watching catalog file")

	out := make(chan Change, 16)
	go t.run(ctx, watcher, target, out)
	return out, nil
}

func (t *FileTrigger) run(ctx context.Context, watcher *fsnotify.Watcher, target string, out chan<- Change) {
	defer close(out)
	defer func() { _ = watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			t.logger.Warn().Err(err).Str("path", target).Msg("Catalog watcher error")

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !matchesPath(event.Name, target) || event.Op == fsnotify.Chmod {
				continue
			}
			t.logger.Debug().
				Str("path", target).
				Str("op", event.Op.String()).
				Msg("Catalog file changed")
			if !send(ctx, out, Change{Path: target, Op: event.Op.String(), At: time.Now()}) {
				return
			}
		}
	}
}

func matchesPath(name, target string) bool {
	if name == "" {
		return false
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return filepath.Clean(abs) == filepath.Clean(target)
}
