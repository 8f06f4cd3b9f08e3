package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCatalog = `[
  {
    "Id": 12,
    "Location": "QEW at Guelph Line",
    "Latitude": 43.3691,
    "Longitude": -79.7871,
    "Views": [
      {"Id": 101, "Url": "https://511on.ca/map/Cctv/12-101"},
      {"Id": 102, "Url": "https://511on.ca/map/Cctv/12-102"}
    ]
  },
  {
    "Id": 15,
    "Location": "QEW at Brant St",
    "Latitude": 43.3405,
    "Longitude": -79.8082,
    "Views": [
      {"Id": 103, "Url": "https://511on.ca/map/Cctv/15-103"}
    ]
  }
]`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cameras.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cameras, err := Load(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cameras) != 2 {
		t.Fatalf("got %d cameras, want 2", len(cameras))
	}
	if cameras[0].ID != 12 || cameras[0].Location != "QEW at Guelph Line" {
		t.Errorf("unexpected first camera: %+v", cameras[0])
	}
	if len(cameras[0].Views) != 2 || cameras[0].Views[0].ID != 101 {
		t.Errorf("unexpected views: %+v", cameras[0].Views)
	}

	if got := CountViews(cameras); got != 3 {
		t.Errorf("CountViews = %d, want 3", got)
	}
}

func TestLoadEmptyCatalogFails(t *testing.T) {
	if _, err := Load(writeCatalog(t, "[]")); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadMalformedJSONFails(t *testing.T) {
	if _, err := Load(writeCatalog(t, "{not json")); err == nil {
		t.Fatal("expected error for malformed catalog")
	}
}
