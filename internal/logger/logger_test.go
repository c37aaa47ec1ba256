package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

// capture installs a logger writing to a buffer and restores defaults afterwards.
func capture(t *testing.T, opts Options) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	opts.Output = buf
	Init(opts)
	t.Cleanup(func() { Init(Options{}) })
	return buf
}

// --- Level Tests ---

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
		wantError bool
	}{
		{name: "default", opts: Options{}, wantInfo: true, wantWarn: true, wantError: true},
		{name: "debug", opts: Options{Debug: true}, wantDebug: true, wantInfo: true, wantWarn: true, wantError: true},
		{name: "quiet", opts: Options{Quiet: true}, wantError: true},
		{name: "quiet overrides debug", opts: Options{Debug: true, Quiet: true}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.opts)

			Debug("debug line")
			Info("info line")
			Warn("warn line")
			Error("error line")

			out := buf.String()
			check := func(msg string, want bool) {
				if got := strings.Contains(out, msg); got != want {
					t.Errorf("%q logged = %v, expected %v", msg, got, want)
				}
			}
			check("debug line", tt.wantDebug)
			check("info line", tt.wantInfo)
			check("warn line", tt.wantWarn)
			check("error line", tt.wantError)
		})
	}
}

// --- Format Tests ---

func TestInit_JSONFormat(t *testing.T) {
	buf := capture(t, Options{JSON: true})

	Info("page analysed", "score", 82)

	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Errorf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, `"score":82`) {
		t.Errorf("expected score attribute, got %q", out)
	}
}

func TestInit_TextFormat(t *testing.T) {
	buf := capture(t, Options{})

	Info("page analysed", "url", "https://example.com")

	out := buf.String()
	if !strings.Contains(out, "level=INFO") {
		t.Errorf("expected text level, got %q", out)
	}
	if !strings.Contains(out, "url=https://example.com") {
		t.Errorf("expected url attribute, got %q", out)
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Logger: slog.New(slog.NewJSONHandler(buf, nil))})
	t.Cleanup(func() { Init(Options{}) })

	Info("custom")
	if !strings.Contains(buf.String(), `"msg":"custom"`) {
		t.Errorf("expected custom logger to be used, got %q", buf.String())
	}
}

// --- Helper Tests ---

func TestNamed_AddsComponent(t *testing.T) {
	buf := capture(t, Options{})

	Named("analysis").Info("cache hit")

	if !strings.Contains(buf.String(), "component=analysis") {
		t.Errorf("expected component attribute, got %q", buf.String())
	}
}

func TestWith_ReturnsLoggerWithAttrs(t *testing.T) {
	buf := capture(t, Options{})

	With("tab", 7).Info("blocked")

	if !strings.Contains(buf.String(), "tab=7") {
		t.Errorf("expected tab attribute, got %q", buf.String())
	}
}

func TestContextVariants(t *testing.T) {
	buf := capture(t, Options{Debug: true})
	ctx := context.Background()

	DebugContext(ctx, "debug ctx")
	InfoContext(ctx, "info ctx")
	WarnContext(ctx, "warn ctx")
	ErrorContext(ctx, "error ctx")

	for _, msg := range []string{"debug ctx", "info ctx", "warn ctx", "error ctx"} {
		if !strings.Contains(buf.String(), msg) {
			t.Errorf("expected %q in output", msg)
		}
	}
}
