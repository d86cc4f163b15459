package feedback

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/modelcast/pkg/constants"
	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
)

// Log appends submissions to a JSON Lines file, one object per line.
type Log struct {
	path   string
	logger *zerolog.Logger

	mu     sync.Mutex
	file   *os.File
	closed bool
	now    func() time.Time
}

// OpenLog opens path for appending, creating it and its directory if needed.
func OpenLog(path string, logger *zerolog.Logger) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, pkgerrors.WrapIO("create", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return nil, pkgerrors.WrapIO("open", path, err)
	}
	return &Log{path: path, logger: logger, file: f, now: time.Now}, nil
}

// Append assigns an id and receipt time to s and writes it as one line.
func (l *Log) Append(s *Submission) error {
	if err := s.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return pkgerrors.WrapResource("append", "feedback", "", pkgerrors.ErrClosed)
	}

	s.ID = uuid.NewString()
	s.ReceivedAt = l.now().UTC()

	line, err := json.Marshal(s)
	if err != nil {
		return pkgerrors.WrapResource("append", "feedback", s.ID, err)
	}
	line = append(line, '\n')
	if _, err := l.file.Write(line); err != nil {
		return pkgerrors.WrapIO("write", l.path, err)
	}

	l.logger.Info().
		Str("id", s.ID).
		Str("model", s.ModelName).
		Int("answers", len(s.QA)).
		Msg("Feedback recorded")
	return nil
}

// Close closes the file. Later appends fail.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}
