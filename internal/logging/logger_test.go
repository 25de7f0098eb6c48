package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/wheat4714/downgraderr/internal/services"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	return slog.New(newPrettyHandler(buf, lvl)), buf
}

func TestPrettyHandlerIncludesComponentPrefix(t *testing.T) {
	logger, buf := newBufferLogger()
	NewComponentLogger(logger, "sweep").Info("starting", Int("items", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO sweep: starting") {
		t.Fatalf("missing component prefix: %q", line)
	}
	if !strings.Contains(line, "items=3") {
		t.Errorf("missing attribute: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	logger, buf := newBufferLogger()
	logger.Info("classified", String("title", "The Wire"))

	if !strings.Contains(buf.String(), `title="The Wire"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestWithContextAddsItemAndRunFields(t *testing.T) {
	logger, buf := newBufferLogger()

	ctx := services.WithItemID(context.Background(), 42)
	ctx = services.WithRunID(ctx, "abc123")
	WithContext(ctx, logger).Info("processed")

	line := buf.String()
	if !strings.Contains(line, "item_id=42") {
		t.Errorf("missing item id: %q", line)
	}
	if !strings.Contains(line, "run_id=abc123") {
		t.Errorf("missing run id: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug") != slog.LevelDebug {
		t.Error("debug level not parsed")
	}
	if parseLevel("") != slog.LevelInfo {
		t.Error("empty level should default to info")
	}
	if parseLevel("bogus") != slog.LevelInfo {
		t.Error("unknown level should default to info")
	}
}
