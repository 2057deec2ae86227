package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/pictag/internal/models"
	"github.com/desertthunder/pictag/internal/services"
	"github.com/desertthunder/pictag/internal/shared"
	tu "github.com/desertthunder/pictag/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			backend := services.NewBackendClient("http://localhost:9000/api/v1", httpClient)
			ollama := services.NewOllamaClient("", httpClient)
			bus := shared.NewBus()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Backend:    backend,
				Ollama:     ollama,
				Bus:        bus,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.backend != backend {
				t.Error("expected backend to be set")
			}
			if runner.ollama != ollama {
				t.Error("expected ollama to be set")
			}
			if runner.bus != bus {
				t.Error("expected bus to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with nil backend builds one from config", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.backend == nil {
				t.Error("expected default backend client to be set")
			}
		})

		t.Run("with nil engine builds a batch engine", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.engine == nil {
				t.Error("expected default analysis engine to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 5 {
			t.Errorf("expected 5 commands, got %d", len(commands))
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("resolveMedia", func(t *testing.T) {
		library := []models.Media{
			{ID: "m1", Filename: "a.png", ContentType: "image/png"},
			{ID: "m2", Filename: "b.jpg", ContentType: "image/jpeg"},
			{ID: "m3", Filename: "c.mp4", ContentType: "video/mp4"},
		}

		newRunnerWithLibrary := func(t *testing.T) *Runner {
			t.Helper()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				data, _ := json.Marshal(library)
				json.NewEncoder(w).Encode(map[string]any{
					"code":    200,
					"message": "OK",
					"data":    json.RawMessage(data),
				})
			}))
			t.Cleanup(server.Close)

			return NewRunner(RunnerOpts{
				Backend: services.NewBackendClient(server.URL, server.Client()),
				Output:  &bytes.Buffer{},
			})
		}

		t.Run("all returns the full library", func(t *testing.T) {
			runner := newRunnerWithLibrary(t)

			media, err := runner.resolveMedia(context.Background(), nil, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(media) != 3 {
				t.Errorf("expected 3 items, got %d", len(media))
			}
		})

		t.Run("narrows to requested ids", func(t *testing.T) {
			runner := newRunnerWithLibrary(t)

			media, err := runner.resolveMedia(context.Background(), []string{"m2"}, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(media) != 1 || media[0].ID != "m2" {
				t.Errorf("expected only m2, got %v", media)
			}
		})

		t.Run("unknown id fails", func(t *testing.T) {
			runner := newRunnerWithLibrary(t)

			_, err := runner.resolveMedia(context.Background(), []string{"m1", "missing"}, false)
			if err == nil {
				t.Fatal("expected error for unknown media id")
			}
			if !strings.Contains(err.Error(), "missing") {
				t.Errorf("expected the unknown id in the error, got %v", err)
			}
		})
	})
}
