package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// resetLogger resets the logger to default state for test isolation
func resetLogger() {
	_ = Init(Options{})
}

// --- Init Tests ---

func TestInit_DefaultLevel_Info(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Output: buf})
	defer resetLogger()

	Info("scrape started")
	if !strings.Contains(buf.String(), "scrape started") {
		t.Error("Info message should be logged at default level")
	}

	buf.Reset()
	Debug("cookie issued")
	if strings.Contains(buf.String(), "cookie issued") {
		t.Error("Debug message should not be logged at default level")
	}
}

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"level_debug", Options{Level: "debug"}, true, true, true},
		{"debug_flag", Options{Debug: true}, true, true, true},
		{"level_warn", Options{Level: "WARN"}, false, false, true},
		{"level_error", Options{Level: "error"}, false, false, false},
		{"quiet_overrides_debug", Options{Debug: true, Quiet: true}, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.opts.Output = buf
			if err := Init(tt.opts); err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			defer resetLogger()

			Debug("d-msg")
			Info("i-msg")
			Warn("w-msg")
			Error("e-msg")

			out := buf.String()
			if got := strings.Contains(out, "d-msg"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "i-msg"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out, "w-msg"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v", got, tt.wantWarn)
			}
			if !strings.Contains(out, "e-msg") {
				t.Error("error should always be logged")
			}
		})
	}
}

func TestInit_UnknownLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	err := Init(Options{Level: "chatty", Output: buf})
	defer resetLogger()

	if err == nil {
		t.Fatal("Init() error = nil, want unknown level error")
	}
	Info("still works")
	if !strings.Contains(buf.String(), "still works") {
		t.Error("logger should fall back to info level")
	}
}

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("country done", "country", "fr", "leaders", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "country done" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["country"] != "fr" {
		t.Errorf("country = %v", entry["country"])
	}
	if entry["leaders"] != float64(3) {
		t.Errorf("leaders = %v", entry["leaders"])
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	custom := slog.New(slog.NewTextHandler(buf, nil))
	_ = Init(Options{Logger: custom, Debug: true})
	defer resetLogger()

	if L() != custom {
		t.Error("L() should return the custom logger")
	}
}

// --- Helper Tests ---

func TestComponent_AddsAttribute(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Output: buf})
	defer resetLogger()

	Component("session").Info("refreshed")
	if !strings.Contains(buf.String(), "component=session") {
		t.Errorf("component attribute missing: %q", buf.String())
	}
}

func TestWith_ReturnsLoggerWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Output: buf})
	defer resetLogger()

	With("country", "be").Warn("skipped")
	out := buf.String()
	if !strings.Contains(out, "country=be") || !strings.Contains(out, "skipped") {
		t.Errorf("With() output = %q", out)
	}
}

func TestContextVariants(t *testing.T) {
	buf := &bytes.Buffer{}
	_ = Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	ctx := context.Background()
	DebugContext(ctx, "ctx-debug")
	InfoContext(ctx, "ctx-info")
	WarnContext(ctx, "ctx-warn")
	ErrorContext(ctx, "ctx-error")

	for _, msg := range []string{"ctx-debug", "ctx-info", "ctx-warn", "ctx-error"} {
		if !strings.Contains(buf.String(), msg) {
			t.Errorf("%s not logged", msg)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"Debug":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
