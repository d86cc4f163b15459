// Package catalog maintains the in-memory model catalog loaded from a JSON
// file on disk and detects changes to that file.
//
// The Store owns the current Snapshot and swaps it atomically on reload.
// Triggers (fsnotify or polling) report file changes as messages on a
// channel; whoever consumes the channel decides when to reload.
package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
	"github.com/agentstation/modelcast/pkg/logging"
)

// Store holds the authoritative catalog snapshot for one file.
type Store struct {
	path         string
	keepLastGood bool
	logger       *zerolog.Logger

	mu       sync.Mutex // serializes Reload
	revision uint64
	current  atomic.Pointer[Snapshot]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load failures.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKeepLastGood makes a failed reload keep serving the previous snapshot
// instead of replacing it with an empty one.
func WithKeepLastGood(enabled bool) Option {
	return func(s *Store) {
		s.keepLastGood = enabled
	}
}

// NewStore creates a store for path and performs the initial load, so
// Current never returns nil. A missing or invalid file yields an empty
// catalog, not an error.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reload()
	return s
}

// Current returns the most recently published snapshot without touching the file.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Load reads and parses the catalog file. On any failure it logs the
// condition and returns an empty snapshot carrying the error. Load does not
// change what Current returns.
func (s *Store) Load() *Snapshot {
	return s.load(0)
}

// Reload loads the file and publishes the result as the current snapshot.
// It reports false when nothing was published, which only happens when the
// read failed and the store keeps the last good snapshot.
func (s *Store) Reload() (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.load(s.revision + 1)
	prev := s.current.Load()
	if next.Err != nil && s.keepLastGood && prev != nil {
		s.logger.Warn().
			Str("path", s.path).
			Uint64("revision", prev.Revision).
			Msg("Keeping last good catalog")
		return prev, false
	}

	s.revision = next.Revision
	s.current.Store(next)
	return next, true
}

func (s *Store) load(revision uint64) *Snapshot {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return s.failed(revision, pkgerrors.WrapIO("read", s.path, err))
	}

	records, err := Decode(data)
	if err != nil {
		parseErr := pkgerrors.NewParseError("json", s.path, err.Error(), err)
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			parseErr.Offset = syntaxErr.Offset
		}
		return s.failed(revision, parseErr)
	}

	s.logger.Debug().
		Str("path", s.path).
		Int("records", len(records)).
		Msg("Catalog loaded")
	return newSnapshot(s.path, revision, records, nil)
}

func (s *Store) failed(revision uint64, err error) *Snapshot {
	s.logger.Error().
		Err(err).
		Str("path", s.path).
		Msg("Catalog load failed, using empty catalog")
	return newSnapshot(s.path, revision, []Record{}, err)
}
