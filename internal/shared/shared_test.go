package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestGenerateID(t *testing.T) {
	t.Run("returns unique values", func(t *testing.T) {
		seen := map[string]bool{}
		for range 100 {
			id := GenerateID()
			if seen[id] {
				t.Fatalf("duplicate id generated: %v", id)
			}
			seen[id] = true
		}
	})

	t.Run("is a v4 uuid shape", func(t *testing.T) {
		id := GenerateID()
		parts := strings.Split(id, "-")
		if len(parts) != 5 {
			t.Errorf("expected 5 segments, got %d in %v", len(parts), id)
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("writes to the provided writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLogger(buf)
		logger.Info("hello")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output in buffer, got %q", buf.String())
		}
	})

	t.Run("nil writer defaults", func(t *testing.T) {
		if NewLogger(nil) == nil {
			t.Error("expected a logger")
		}
	})
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	logger.Info("written to file")

	data := mustRead(t, path)
	if !strings.Contains(data, "written to file") {
		t.Errorf("expected log line in file, got %q", data)
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]string{"key": "value"}

	t.Run("compact", func(t *testing.T) {
		out, err := MarshalJSON(data, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(out) != `{"key":"value"}` {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		out, err := MarshalJSON(data, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(string(out), `"key": "value"`) {
			t.Errorf("expected indented output, got %s", out)
		}
	})
}
