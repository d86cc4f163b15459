package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
)

func waitChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-changes:
		require.True(t, ok, "trigger channel closed")
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for change")
		return Change{}
	}
}

func TestNewTrigger(t *testing.T) {
	logger := zerolog.Nop()

	trig, err := NewTrigger("", "models.json", 0, &logger)
	require.NoError(t, err)
	assert.IsType(t, &FileTrigger{}, trig)

	trig, err = NewTrigger(TriggerPoll, "models.json", 0, &logger)
	require.NoError(t, err)
	require.IsType(t, &PollTrigger{}, trig)
	assert.Positive(t, trig.(*PollTrigger).interval)

	_, err = NewTrigger("inotify", "models.json", 0, &logger)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestFileTriggerReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.json")
	writeCatalog(t, path, "[]")

	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := NewFileTrigger(path, &logger).Start(ctx)
	require.NoError(t, err)

	// Other files in the directory are ignored.
	writeCatalog(t, filepath.Join(dir, "other.json"), "[]")
	writeCatalog(t, path, `[{"id":"m1"}]`)

	c := waitChange(t, changes)
	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, c.Path)
	assert.NotEmpty(t, c.Op)
}

func TestFileTriggerReportsRenameOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.json")
	writeCatalog(t, path, "[]")

	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := NewFileTrigger(path, &logger).Start(ctx)
	require.NoError(t, err)

	tmp := filepath.Join(dir, ".models.json.tmp")
	writeCatalog(t, tmp, `[{"id":"m2"}]`)
	require.NoError(t, os.Rename(tmp, path))

	waitChange(t, changes)
}

func TestFileTriggerClosesOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())

	changes, err := NewFileTrigger(path, &logger).Start(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-changes:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestFileTriggerMissingDirectory(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewFileTrigger(filepath.Join(t.TempDir(), "nope", "models.json"), &logger).Start(context.Background())

	var ioErr *pkgerrors.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestPollTrigger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := NewPollTrigger(path, 10*time.Millisecond, &logger).Start(ctx)
	require.NoError(t, err)

	writeCatalog(t, path, "[]")
	assert.Equal(t, "CREATE", waitChange(t, changes).Op)

	writeCatalog(t, path, `[{"id":"m1","name":"Elephant-v1"}]`)
	assert.Equal(t, "WRITE", waitChange(t, changes).Op)

	require.NoError(t, os.Remove(path))
	assert.Equal(t, "REMOVE", waitChange(t, changes).Op)
}
