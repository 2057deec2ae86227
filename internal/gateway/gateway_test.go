package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/pictag/internal/services"
	"github.com/desertthunder/pictag/internal/shared"
)

// newTestGateway wires a gateway against a stub backend and returns the
// backend invocation counter so tests can assert fail-fast behavior.
func newTestGateway(t *testing.T, backend http.HandlerFunc) (*Gateway, *atomic.Int64) {
	t.Helper()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if backend != nil {
			backend(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code": 200, "message": "OK", "data": null}`))
	}))
	t.Cleanup(server.Close)

	config := shared.DefaultConfig()
	config.Backend.BaseURL = server.URL

	client := services.NewBackendClient(server.URL, server.Client())
	gw := New(config, client, shared.NewBus(), shared.NewLogger(io.Discard))

	return gw, &calls
}

// signedToken builds an HS256 JWT with the given expiry.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	return signed
}

// decodeEnvelope parses a recorded response body as the uniform envelope.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not a valid envelope: %v (body %q)", err, rec.Body.String())
	}

	return env
}

func TestHealthEndpoint(t *testing.T) {
	gw, _ := newTestGateway(t, nil)
	handler := gw.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	data, isObject := env.Data.(map[string]any)
	if !isObject {
		t.Fatalf("expected object data, got %T", env.Data)
	}

	if data["status"] != "ok" {
		t.Errorf("expected status ok, got %v", data["status"])
	}
	if _, hasPending := data["pending"]; !hasPending {
		t.Error("expected pending count in health data")
	}
}
