package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	log.Info().Str("video_id", "abc").Msg("grouped")
	log.Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("expected json level field, got: %s", out)
	}
	if !strings.Contains(out, `"video_id":"abc"`) {
		t.Errorf("expected structured field, got: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug output should be filtered in production, got: %s", out)
	}
}

func TestDevelopmentLoggerIncludesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("development", &buf)

	log.Debug().Msg("visible")

	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected debug output in development, got: %s", buf.String())
	}
}
