package catalog

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// PollTrigger checks the catalog file on a fixed interval and reports a
// Change whenever its size, modification time, or existence differs from
// the previous check.
type PollTrigger struct {
	path     string
	interval time.Duration
	logger   *zerolog.Logger
}

// NewPollTrigger creates a polling trigger for path.
func NewPollTrigger(path string, interval time.Duration, logger *zerolog.Logger) *PollTrigger {
	return &PollTrigger{path: path, interval: interval, logger: logger}
}

type fileState struct {
	exists  bool
	size    int64
	modTime time.Time
}

func statFile(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, size: info.Size(), modTime: info.ModTime()}
}

// Start records the current file state and begins polling.
func (t *PollTrigger) Start(ctx context.Context) (<-chan Change, error) {
	out := make(chan Change, 1)
	last := statFile(t.path)

	t.logger.Debug().
		Str("path", t.path).
		Dur("interval", t.interval).
		Msg("Polling catalog file")

	go func() {
		defer close(out)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				next := statFile(t.path)
				if next == last {
					continue
				}
				op := "WRITE"
				switch {
				case !next.exists:
					op = "REMOVE"
				case !last.exists:
					op = "CREATE"
				}
				last = next
				if !send(ctx, out, Change{Path: t.path, Op: op, At: time.Now()}) {
					return
				}
			}
		}
	}()

	return out, nil
}
