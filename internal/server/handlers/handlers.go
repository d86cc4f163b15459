// Package handlers provides the HTTP handlers of the modelcast server.
package handlers

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agentstation/modelcast/internal/catalog"
	"github.com/agentstation/modelcast/internal/distribution"
	"github.com/agentstation/modelcast/internal/feedback"
)

// FeedbackObserver records feedback submissions.
type FeedbackObserver interface {
	ObserveFeedback(err error)
}

type nopObserver struct{}

func (nopObserver) ObserveFeedback(error) {}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	service   *distribution.Service
	questions *catalog.Store
	feedback  *feedback.Log
	observer  FeedbackObserver
	upgrader  websocket.Upgrader
	queueSize int
	startTime time.Time
	clients   atomic.Uint64
}

// New creates a new Handlers instance. observer may be nil.
func New(
	service *distribution.Service,
	questions *catalog.Store,
	feedbackLog *feedback.Log,
	observer FeedbackObserver,
	upgrader websocket.Upgrader,
	queueSize int,
) *Handlers {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Handlers{
		service:   service,
		questions: questions,
		feedback:  feedbackLog,
		observer:  observer,
		upgrader:  upgrader,
		queueSize: queueSize,
		startTime: time.Now(),
	}
}
