package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"ERROR", LogLevelError},
		{"warn", LogLevelWarn},
		{"WARNING", LogLevelWarn},
		{"", LogLevelInfo},
		{"bogus", LogLevelInfo},
		{"debug", LogLevelDebug},
		{" TRACE ", LogLevelTrace},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn)

	logger.Info("hidden %d", 1)
	logger.Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be suppressed at warn level, got %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("expected warn line in output, got %q", out)
	}
}
