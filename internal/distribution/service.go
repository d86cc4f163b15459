// Package distribution serves the catalog to clients by pull and by push.
//
// The Service owns the set of push subscribers. A new subscriber first
// receives the current snapshot; every later file change reloads the
// catalog and broadcasts the new snapshot to every subscriber. Delivery is
// best effort: a subscriber whose send fails is dropped and the broadcast
// continues with the others.
package distribution

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/modelcast/internal/catalog"
	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
	"github.com/agentstation/modelcast/pkg/logging"
)

// Service distributes catalog snapshots to subscribers.
type Service struct {
	store   *catalog.Store
	logger  *zerolog.Logger
	metrics Metrics

	reloadMu sync.Mutex // serializes FileChanged

	mu     sync.Mutex
	subs   map[uint64]*Handle
	nextID uint64
	closed bool
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New creates a service over store.
func New(store *catalog.Store, logger *zerolog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:   store,
		logger:  logger,
		metrics: nopMetrics{},
		subs:    make(map[uint64]*Handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the cached snapshot. It never reads the file.
func (s *Service) Current() *catalog.Snapshot {
	return s.store.Current()
}

// Subscribe sends the current snapshot to sub and, if that succeeds, adds
// it to the broadcast set. When the first send fails the subscriber is
// closed and never added.
//
// The set lock is held while the first snapshot is sent, so a concurrent
// broadcast either includes the new subscriber or carries a snapshot no
// newer than the one it was just given.
func (s *Service) Subscribe(sub Subscriber) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	h := newHandle(s.nextID, sub)

	if s.closed {
		h.finish(StateClosing)
		return nil, pkgerrors.WrapResource("subscribe", "subscriber", sub.Transport(), pkgerrors.ErrClosed)
	}

	snap := s.store.Current()
	if err := sub.Send(snap); err != nil {
		s.metrics.ObserveDelivery(sub.Transport(), err)
		h.finish(StateError)
		s.logger.Warn().
			Err(err).
			Uint64("subscriber", h.id).
			Str("transport", sub.Transport()).
			Msg("Initial snapshot delivery failed")
		return nil, pkgerrors.WrapResource("subscribe", "subscriber", fmt.Sprint(h.id), err)
	}
	s.metrics.ObserveDelivery(sub.Transport(), nil)

	s.subs[h.id] = h
	h.setState(StateConnected)
	s.metrics.SubscriberAdded(sub.Transport())

	s.logger.Info().
		Uint64("subscriber", h.id).
		Str("transport", sub.Transport()).
		Uint64("revision", snap.Revision).
		Int("total_subscribers", len(s.subs)).
		Msg("Subscriber registered")
	return h, nil
}

// Unsubscribe removes h from the set and closes its connection.
// Calling it again, or for a subscriber that was already dropped, does nothing.
func (s *Service) Unsubscribe(h *Handle) {
	if h == nil {
		return
	}
	if s.remove(h, StateClosing) {
		s.logger.Info().
			Uint64("subscriber", h.id).
			Str("transport", h.Transport()).
			Int("total_subscribers", s.SubscriberCount()).
			Msg("Subscriber unregistered")
	}
}

// remove deletes h from the set and finishes it via the given state.
// It reports whether h was in the set.
func (s *Service) remove(h *Handle, via State) bool {
	s.mu.Lock()
	cur, ok := s.subs[h.id]
	ok = ok && cur == h
	if ok {
		delete(s.subs, h.id)
	}
	s.mu.Unlock()

	h.finish(via)
	if ok {
		s.metrics.SubscriberRemoved(h.Transport())
	}
	return ok
}

// FileChanged reloads the catalog and broadcasts the result. Calls are
// serialized so broadcasts go out in revision order. It returns the
// snapshot that is current afterwards.
func (s *Service) FileChanged() *catalog.Snapshot {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	snap, changed := s.store.Reload()
	s.metrics.ObserveReload(snap.Err, snap.Len())
	if !changed {
		return snap
	}

	s.broadcast(snap)
	return snap
}

func (s *Service) broadcast(snap *catalog.Snapshot) {
	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.subs))
	for _, h := range s.subs {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	s.metrics.ObserveBroadcast(len(handles))

	failed := 0
	for _, h := range handles {
		err := h.sub.Send(snap)
		s.metrics.ObserveDelivery(h.Transport(), err)
		if err == nil {
			continue
		}
		failed++
		s.logger.Warn().
			Err(err).
			Uint64("subscriber", h.id).
			Str("transport", h.Transport()).
			Uint64("revision", snap.Revision).
			Msg("Failed to deliver catalog, dropping subscriber")
		s.remove(h, StateError)
	}

	s.logger.Info().
		Uint64("revision", snap.Revision).
		Int("records", snap.Len()).
		Int("subscribers", len(handles)).
		Int("failed", failed).
		Msg("Catalog broadcast")
}

// Run calls FileChanged for every change received until ctx is done or
// changes is closed.
func (s *Service) Run(ctx context.Context, changes <-chan catalog.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			s.logger.Debug().
				Str("path", c.Path).
				Str("op", c.Op).
				Msg("Catalog change detected")
			s.FileChanged()
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (s *Service) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Shutdown closes every subscriber and rejects new ones.
func (s *Service) Shutdown() {
	s.mu.Lock()
	s.closed = true
	handles := make([]*Handle, 0, len(s.subs))
	for id, h := range s.subs {
		handles = append(handles, h)
		delete(s.subs, id)
	}
	s.mu.Unlock()

	for _, h := range handles {
		h.finish(StateClosing)
		s.metrics.SubscriberRemoved(h.Transport())
	}
	s.logger.Info().Int("closed", len(handles)).Msg("Distribution service shut down")
}
