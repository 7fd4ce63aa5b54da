package logging

import (
	"context"
	"testing"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("Expected default logger for empty context")
	}
	if FromContext(nil) != Default() { //nolint:staticcheck // nil context fallback is the point
		t.Error("Expected default logger for nil context")
	}
}

func TestWithLoggerRoundTrip(t *testing.T) {
	tl := NewTestLogger(t)
	ctx := WithLogger(context.Background(), tl.Logger)

	got := FromContext(ctx)
	if got != tl.Logger {
		t.Error("Expected logger stored in context to be returned")
	}

	got.Info().Msg("via context")
	if !tl.Contains("via context") {
		t.Errorf("Expected message logged through context logger, got: %s", tl.Output())
	}
}
