package catalog

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/modelcast/pkg/constants"
	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
	"github.com/agentstation/modelcast/pkg/logging"
)

// Trigger kinds accepted by NewTrigger.
const (
	TriggerFsnotify = "fsnotify"
	TriggerPoll     = "poll"
)

// Change reports that the catalog file may have changed.
type Change struct {
	Path string
	Op   string
	At   time.Time
}

// Trigger produces a Change for every detected modification of the catalog
// file. The channel is closed when ctx is done.
type Trigger interface {
	Start(ctx context.Context) (<-chan Change, error)
}

// NewTrigger returns the trigger for kind. An empty kind selects fsnotify.
func NewTrigger(kind, path string, interval time.Duration, logger *zerolog.Logger) (Trigger, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch kind {
	case "", TriggerFsnotify:
		return NewFileTrigger(path, logger), nil
	case TriggerPoll:
		if interval <= 0 {
			interval = constants.DefaultPollInterval
		}
		return NewPollTrigger(path, interval, logger), nil
	default:
		return nil, pkgerrors.NewValidationError("trigger", kind, "must be fsnotify or poll")
	}
}

// send delivers c unless ctx ends first.
func send(ctx context.Context, out chan<- Change, c Change) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
