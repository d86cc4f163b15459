package logging_test

import (
	"context"
	"testing"

	"github.com/agentstation/modelcast/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	first := logging.Default()
	if first == nil {
		t.Fatal("Default() returned nil")
	}
	if logging.Default() != first {
		t.Error("Default() should return the same logger on every call")
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithRequestID(ctx, "req-1")
	ctx = logging.WithSubscriber(ctx, "websocket", "sub-7")

	logging.FromContext(ctx).Info().Msg("subscriber connected")

	testLogger.AssertContains(t, `"transport":"websocket"`)
	testLogger.AssertContains(t, `"subscriber_id":"sub-7"`)
	testLogger.AssertContains(t, `"request_id":"req-1"`)
	testLogger.AssertContains(t, "subscriber connected")

	if got := logging.RequestID(ctx); got != "req-1" {
		t.Errorf("RequestID() = %q, want req-1", got)
	}
}

func TestFromContextDefaults(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	if logging.FromContext(nil) != logging.Default() {
		t.Error("FromContext(nil) should return the default logger")
	}
	if logging.FromContext(context.Background()) != logging.Default() {
		t.Error("FromContext without logger should return the default logger")
	}
	if logging.RequestID(context.Background()) != "" {
		t.Error("RequestID without value should be empty")
	}
}
