package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentHTTP, Output: &buf})

	logger.WithComponent(ComponentWorker).Info("consumed", FieldQueue, "q")
	out := buf.String()
	if !strings.Contains(out, "component=worker") || !strings.Contains(out, "queue=q") {
		t.Fatalf("unexpected output: %s", out)
	}
	if strings.Contains(out, "component=http") {
		t.Fatalf("component should be replaced, not duplicated: %s", out)
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.component != ComponentUnknown {
		t.Fatalf("fallback component = %q", got.component)
	}

	logger := New(Config{Component: ComponentAuth, Output: &bytes.Buffer{}})
	ctx := NewContext(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected logger from context")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentWorkload).
		WithOperation(OpApply).
		WithTrainer("t1", 2024, "november").
		WithError(errors.New("boom"))

	if f[FieldUsername] != "t1" || f[FieldYear] != 2024 || f[FieldMonth] != "november" {
		t.Fatalf("unexpected trainer fields: %v", f)
	}
	if f[FieldError] != "boom" {
		t.Fatalf("unexpected error field: %v", f[FieldError])
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("ToSlice length mismatch")
	}

	if NewFields().WithRequestID("r1")[FieldRequestID] != "r1" {
		t.Fatalf("request id not set")
	}

	resp := NewFields().WithHTTPResponse(404, 3)
	if resp[FieldSuccess] != false {
		t.Fatalf("404 should not be success")
	}
}
