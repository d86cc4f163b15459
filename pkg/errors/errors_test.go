package errors_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := pkgerrors.NewValidationError("modelName", "", "is required")
	assert.Equal(t, "invalid modelName: is required", err.Error())
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))

	bare := &pkgerrors.ValidationError{Message: "empty body"}
	assert.Equal(t, "invalid: empty body", bare.Error())

	wrapped := fmt.Errorf("decode feedback: %w", err)
	assert.True(t, pkgerrors.IsValidationError(wrapped))
}

func TestConfigError(t *testing.T) {
	base := errors.New("missing")
	err := pkgerrors.NewConfigError("server", "catalog path is required", base)
	assert.Equal(t, "config server: catalog path is required", err.Error())
	assert.Equal(t, base, errors.Unwrap(err))
	assert.False(t, pkgerrors.IsValidationError(err))

	bare := &pkgerrors.ConfigError{Message: "bad"}
	assert.Equal(t, "config: bad", bare.Error())
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		err  *pkgerrors.ParseError
		want string
	}{
		{
			name: "file and offset",
			err:  &pkgerrors.ParseError{Format: "json", File: "models.json", Offset: 12, Message: "unexpected end"},
			want: "decode json models.json at byte 12: unexpected end",
		},
		{
			name: "file only",
			err:  pkgerrors.NewParseError("json", "questions.json", "not an array", nil),
			want: "decode json questions.json: not an array",
		},
		{
			name: "request body",
			err:  pkgerrors.NewParseError("json", "", "unexpected EOF", nil),
			want: "decode json: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, pkgerrors.IsValidationError(tt.err))
		})
	}

	t.Run("wrap keeps cause", func(t *testing.T) {
		cause := errors.New("bad token")
		err := pkgerrors.WrapParse("json", "models.json", cause)
		var parseErr *pkgerrors.ParseError
		require.True(t, pkgerrors.As(err, &parseErr))
		assert.Equal(t, "models.json", parseErr.File)
		assert.ErrorIs(t, err, cause)
		assert.Nil(t, pkgerrors.WrapParse("json", "", nil))
	})
}

func TestIOError(t *testing.T) {
	err := pkgerrors.WrapIO("read", "/srv/models.json", fs.ErrNotExist)
	assert.Equal(t, "read /srv/models.json: file does not exist", err.Error())
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.False(t, pkgerrors.IsValidationError(err))

	var ioErr *pkgerrors.IOError
	require.True(t, pkgerrors.As(err, &ioErr))
	assert.Equal(t, "read", ioErr.Operation)

	noPath := pkgerrors.NewIOError("dial", "", errors.New("refused"))
	assert.Equal(t, "dial: refused", noPath.Error())

	assert.Nil(t, pkgerrors.WrapIO("stat", "x", nil))
}

func TestResourceError(t *testing.T) {
	err := pkgerrors.WrapResource("subscribe", "subscriber", "7", pkgerrors.ErrClosed)
	assert.Equal(t, "subscribe subscriber 7: closed", err.Error())
	assert.True(t, pkgerrors.IsClosed(err))

	noID := pkgerrors.WrapResource("append", "feedback", "", errors.New("disk full"))
	assert.Equal(t, "append feedback: disk full", noID.Error())
	assert.False(t, pkgerrors.IsClosed(noID))

	assert.Nil(t, pkgerrors.WrapResource("append", "feedback", "", nil))
}
