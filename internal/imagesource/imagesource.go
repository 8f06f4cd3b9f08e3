// Package imagesource acquires camera frames for classification, either
// from the live snapshot endpoints or from a directory of scraped images.
package imagesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPSource fetches snapshots from each view's image URL.
type HTTPSource struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPSource creates an HTTP snapshot fetcher.
func NewHTTPSource(logger *zap.Logger) *HTTPSource {
	return &HTTPSource{
		client: &http.Client{Timeout: 20 * time.Second},
		logger: logger,
	}
}

// Fetch downloads one snapshot. Returns the image bytes and MIME type.
func (s *HTTPSource) Fetch(ctx context.Context, cameraID, viewID int, url string) ([]byte, string, error) {
	if url == "" {
		return nil, "", fmt.Errorf("no snapshot URL for camera %d view %d", cameraID, viewID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create snapshot request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("snapshot endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read snapshot body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty snapshot from camera %d view %d", cameraID, viewID)
	}

	mimeType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("snapshot is not an image (%s)", mimeType)
	}

	return data, mimeType, nil
}

// DirSource reads pre-scraped frames named camera_<id>_view_<id>.jpg from
// a local directory. Used for offline demos.
type DirSource struct {
	dir    string
	logger *zap.Logger
}

// NewDirSource creates a directory-backed source.
func NewDirSource(dir string, logger *zap.Logger) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("image directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("image path %s is not a directory", dir)
	}
	return &DirSource{dir: dir, logger: logger}, nil
}

// Fetch reads the scraped frame for a camera/view pair.
func (s *DirSource) Fetch(_ context.Context, cameraID, viewID int, _ string) ([]byte, string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("camera_%d_view_%d.jpg", cameraID, viewID))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read scraped frame: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("scraped frame %s is empty", path)
	}

	return data, "image/jpeg", nil
}
