// Package sse delivers catalog snapshots as Server-Sent Events.
//
// Every snapshot is written as one "models" event whose id is the catalog
// revision and whose data is the whole JSON array on a single line.
package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/modelcast/internal/catalog"
	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
)

// Transport is the transport name reported to the distribution service.
const Transport = "sse"

// EventName is the SSE event type used for catalog snapshots.
const EventName = "models"

// keepAlive is how often a comment line is written to idle streams.
const keepAlive = 30 * time.Second

// ErrQueueFull is returned by Send when the peer is not keeping up.
var ErrQueueFull = errors.New("sse send queue full")

// Stream is one SSE subscriber.
type Stream struct {
	id     string
	events chan *catalog.Snapshot
	done   chan struct{}
	once   sync.Once
	logger *zerolog.Logger
}

// NewStream creates a stream with a queue of the given size.
func NewStream(id string, queueSize int, logger *zerolog.Logger) *Stream {
	return &Stream{
		id:     id,
		events: make(chan *catalog.Snapshot, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Transport implements distribution.Subscriber.
func (s *Stream) Transport() string {
	return Transport
}

// Send queues the snapshot without blocking.
func (s *Stream) Send(snap *catalog.Snapshot) error {
	select {
	case <-s.done:
		return pkgerrors.WrapResource("send", "subscriber", s.id, pkgerrors.ErrClosed)
	default:
	}

	select {
	case s.events <- snap:
		return nil
	default:
		return pkgerrors.WrapResource("send", "subscriber", s.id, ErrQueueFull)
	}
}

// Close ends Serve. It is safe to call more than once.
func (s *Stream) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// Serve writes queued snapshots to w until ctx is done, the stream is
// closed, or a write fails.
func (s *Stream) Serve(ctx context.Context, w http.ResponseWriter) error {
	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return err
	}

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case snap := <-s.events:
			if err := WriteEvent(w, snap); err != nil {
				s.logger.Debug().Err(err).Msg("SSE write failed")
				return err
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return err
			}
		}
		if err := rc.Flush(); err != nil {
			return err
		}
	}
}

// WriteEvent writes snap as one SSE event.
func WriteEvent(w io.Writer, snap *catalog.Snapshot) error {
	_, err := fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", EventName, snap.Revision, snap.JSON())
	return err
}
