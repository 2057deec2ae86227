package gateway

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExpandPath(t *testing.T) {
	t.Run("single segment escaped", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/projects/abc", nil)
		req.SetPathValue("id", "a b/c")

		got := expandPath("/projects/{id}", req)
		if got != "/projects/a%20b%2Fc" {
			t.Errorf("expected escaped id, got %q", got)
		}
	})

	t.Run("trailing wildcard keeps slashes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/media/file/2024/img.png", nil)
		req.SetPathValue("path", "2024/img.png")

		got := expandPath("/media/file/{path...}", req)
		if got != "/media/file/2024/img.png" {
			t.Errorf("expected slashes preserved, got %q", got)
		}
	})
}

func TestBinaryPassthrough(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x01, 0x02}

	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/media/file/2024/img.png" {
			t.Errorf("unexpected backend path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	})
	handler := gw.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/file/2024/img.png", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), payload) {
		t.Error("body bytes must pass through unmodified")
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("expected image/png, got %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=60, must-revalidate" {
		t.Errorf("unexpected Cache-Control %q", got)
	}
}

func TestExportDispositionPassthrough(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="dataset.zip"`)
		w.Write([]byte("PK\x03\x04"))
	})
	handler := gw.Handler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/projects/p1/export-dataset", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "session-token"})
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="dataset.zip"` {
		t.Errorf("Content-Disposition not passed through, got %q", got)
	}
	if rec.Header().Get("Cache-Control") != "" {
		t.Error("exports should not carry media cache headers")
	}
}

func TestMultipartForwarding(t *testing.T) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "photo.jpg")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("jpeg-bytes"))
	writer.Close()
	sent := buf.Bytes()

	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != writer.FormDataContentType() {
			t.Errorf("multipart Content-Type not preserved: %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
			t.Errorf("expected bearer header, got %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		if !bytes.Equal(body, sent) {
			t.Error("multipart body must be forwarded byte for byte")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code": 200, "message": "uploaded", "data": {"id": "m1"}}`))
	})
	handler := gw.Handler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/media", bytes.NewReader(sent))
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "session-token"})
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRequiredQueryParam(t *testing.T) {
	gw, calls := newTestGateway(t, nil)
	handler := gw.Handler()

	t.Run("missing media_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/analyses/by-media", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "session-token"})
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if calls.Load() != 0 {
			t.Error("backend must not be called with missing required input")
		}
	})

	t.Run("media_id present", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/analyses/by-media?media_id=m1", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "session-token"})
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if calls.Load() != 1 {
			t.Errorf("expected one backend call, saw %d", calls.Load())
		}
	})
}

func TestQueryForwarding(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("expected page=2 forwarded, got %q", got)
		}
		w.Write([]byte(`{"code": 200, "message": "OK", "data": []}`))
	})
	handler := gw.Handler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/media?page=2", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "session-token"})
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
