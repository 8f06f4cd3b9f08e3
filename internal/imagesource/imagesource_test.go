package imagesource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

// Minimal JPEG header so content-type detection sees an image.
var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 64)...)

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	src := NewHTTPSource(zap.NewNop())
	data, mimeType, err := src.Fetch(context.Background(), 12, 101, srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mime = %s, want image/jpeg", mimeType)
	}
	if len(data) != len(jpegBytes) {
		t.Errorf("got %d bytes, want %d", len(data), len(jpegBytes))
	}
}

func TestHTTPSourceNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(zap.NewNop())
	if _, _, err := src.Fetch(context.Background(), 12, 101, srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestHTTPSourceEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
	}))
	defer srv.Close()

	src := NewHTTPSource(zap.NewNop())
	if _, _, err := src.Fetch(context.Background(), 12, 101, srv.URL); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestHTTPSourceRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>camera offline</html>"))
	}))
	defer srv.Close()

	src := NewHTTPSource(zap.NewNop())
	if _, _, err := src.Fetch(context.Background(), 12, 101, srv.URL); err == nil {
		t.Fatal("expected error for html body")
	}
}

func TestDirSourceFetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camera_12_view_101.jpg")
	if err := os.WriteFile(path, jpegBytes, 0644); err != nil {
		t.Fatal(err)
	}

	src, err := NewDirSource(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}

	data, mimeType, err := src.Fetch(context.Background(), 12, 101, "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if mimeType != "image/jpeg" || len(data) != len(jpegBytes) {
		t.Errorf("unexpected result: %s, %d bytes", mimeType, len(data))
	}

	if _, _, err := src.Fetch(context.Background(), 99, 999, ""); err == nil {
		t.Fatal("expected error for missing frame")
	}
}

func TestDirSourceMissingDir(t *testing.T) {
	if _, err := NewDirSource(filepath.Join(t.TempDir(), "nope"), zap.NewNop()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
