package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid JSON record %q: %v", line, err)
		}

		out = append(out, rec)
	}

	return out
}

func TestLogger_ZeroValueIsSilent(t *testing.T) {
	var l Logger

	l.Info("dropped")
	l.TraceContext(context.Background(), "dropped")

	if l.Enabled(context.Background(), LevelError) {
		t.Error("zero Logger reports enabled")
	}

	if got := l.With(slog.String("k", "v")); got.Logger != nil {
		t.Error("With on zero Logger produced a live logger")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf,
		WithLevel(LevelWarn),
		WithFormat(FormatJSON),
		WithPretty(false),
		WithTimeLayout("none"),
	)

	l.Trace("trace")
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	recs := decodeLines(t, &buf)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2: %s", len(recs), buf.String())
	}

	if recs[0]["level"] != "WARN" || recs[1]["level"] != "ERROR" {
		t.Errorf("unexpected levels: %v, %v", recs[0]["level"], recs[1]["level"])
	}

	if _, ok := recs[0]["time"]; ok {
		t.Error("time present although layout is none")
	}
}

func TestLogger_TraceLevelName(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON), WithPretty(false))
	l.Trace("step", slog.Int("n", 1))

	recs := decodeLines(t, &buf)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}

	if recs[0]["level"] != "TRACE" {
		t.Errorf("level = %v, want TRACE", recs[0]["level"])
	}
}

func TestLogger_WithAttrs(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatJSON), WithPretty(false))
	l = l.With(slog.String("component", "bind"))
	l.Info("hello", slog.Int("sites", 3))

	recs := decodeLines(t, &buf)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}

	if recs[0]["component"] != "bind" {
		t.Errorf("component = %v, want bind", recs[0]["component"])
	}

	if recs[0]["sites"] != float64(3) {
		t.Errorf("sites = %v, want 3", recs[0]["sites"])
	}
}

func TestLogger_WrapOverrides(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithLevel(LevelError), WithFormat(FormatJSON), WithPretty(false))
	wrapped := base.Wrap(WithLevel(LevelDebug))

	if base.Level() != LevelError {
		t.Errorf("base level changed to %v", base.Level())
	}

	if wrapped.Level() != LevelDebug {
		t.Errorf("wrapped level = %v, want debug", wrapped.Level())
	}

	wrapped.Debug("visible")

	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("wrapped logger did not write: %q", buf.String())
	}
}

func TestLogger_PrettyText(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatText), WithPretty(true), WithTimeLayout("none"))
	l.With(slog.String("scope", "store")).Info("evaluated", slog.Bool("ok", true))

	out := buf.String()
	for _, want := range []string{"INFO", "evaluated", "scope=", "store", "ok=", "true"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLogger_PrettyJSONGroups(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatJSON), WithPretty(true), WithTimeLayout("none"))
	l.Info("grouped", slog.Group("site", slog.Int("id", 7)))

	out := buf.String()
	for _, want := range []string{`"msg"`, "grouped", `"site"`, `"id"`, "7"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLogger_ConcurrentWrap(t *testing.T) {
	var buf safeBuffer

	base := Make(&buf, WithFormat(FormatJSON), WithPretty(false), WithTimeLayout("none"))

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Go(func() {
			l := base.Wrap(WithLevel(LevelTrace)).With(slog.Int("worker", i))
			l.TraceContext(context.Background(), "step")
		})
	}

	wg.Wait()

	if n := strings.Count(buf.String(), `"msg":"step"`); n != 8 {
		t.Errorf("got %d records, want 8", n)
	}

	if base.Level() != DefaultLevel {
		t.Errorf("base level changed to %v", base.Level())
	}
}

// safeBuffer serializes writes from concurrent handlers.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
