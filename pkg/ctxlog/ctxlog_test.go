package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContext_ReturnsEmbeddedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Debug("hello", "k", "v")

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected debug message in output, got %q", buf.String())
	}
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected slog.Default() when no logger is embedded")
	}
}

func TestNew_QuietSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output for debug when not verbose, got %q", buf.String())
	}
}
