package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewHandler_Format(t *testing.T) {
	if _, ok := newHandler("info", "json").(*slog.JSONHandler); !ok {
		t.Error("newHandler(json) should return a JSON handler")
	}
	if _, ok := newHandler("info", "text").(*slog.TextHandler); !ok {
		t.Error("newHandler(text) should return a text handler")
	}
	if _, ok := newHandler("info", "").(*slog.TextHandler); !ok {
		t.Error("newHandler with empty format should default to text")
	}
}

func TestNewHandler_Level(t *testing.T) {
	h := newHandler("warn", "text")
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("warn handler should not enable info")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("warn handler should enable error")
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext returned nil without request id")
	}

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")
	if FromContext(ctx) == nil {
		t.Fatal("FromContext returned nil with request id")
	}
	if WithFields(ctx, "session_id", "abc") == nil {
		t.Fatal("WithFields returned nil")
	}
}
