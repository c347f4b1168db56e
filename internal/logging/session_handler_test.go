package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSessionIDHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := WithSessionID(slog.New(slog.NewJSONHandler(&buf, nil)), "test-session-123")
	logger.Info("test message")

	if !strings.Contains(buf.String(), `"session_id":"test-session-123"`) {
		t.Errorf("expected session_id in output, got: %s", buf.String())
	}
}

func TestSessionIDHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := WithSessionID(slog.New(slog.NewJSONHandler(&buf, nil)), "session-abc").With("extra", "value")
	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, `"session_id":"session-abc"`) {
		t.Errorf("expected session_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"extra":"value"`) {
		t.Errorf("expected extra attr in output, got: %s", output)
	}
}

func TestSessionIDHandler_EmptyID(t *testing.T) {
	base := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	if WithSessionID(base, "") != base {
		t.Error("expected the base logger back for an empty session id")
	}
}

func TestSessionIDHandler_NilBase(t *testing.T) {
	handler := newSessionIDHandler(nil, "session-123")
	if _, ok := handler.(NoopHandler); !ok {
		t.Errorf("expected NoopHandler when base is nil, got: %T", handler)
	}
}

func TestFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Error("expected NoopHandler for all nil handlers")
	}
	inner := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	if newFanoutHandler(nil, inner) != inner {
		t.Error("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsLevels(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h).With("component", "engine")
	logger.Info("info only")
	logger.Error("both")

	if strings.Count(infoBuf.String(), "\n") != 2 {
		t.Fatalf("info handler got %q", infoBuf.String())
	}
	if strings.Contains(errBuf.String(), "info only") || !strings.Contains(errBuf.String(), "both") {
		t.Fatalf("error handler got %q", errBuf.String())
	}
	if !strings.Contains(errBuf.String(), `"component":"engine"`) {
		t.Fatalf("WithAttrs not propagated: %q", errBuf.String())
	}
}
