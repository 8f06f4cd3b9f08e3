// Package catalog loads the corridor camera reference data.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"workzone-monitor/internal/models"
)

// Load reads the camera catalog from a JSON file in the 511ON export
// shape. The catalog is immutable reference data; load it once at startup.
func Load(path string) ([]models.Camera, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read camera catalog: %w", err)
	}

	var cameras []models.Camera
	if err := json.Unmarshal(data, &cameras); err != nil {
		return nil, fmt.Errorf("failed to parse camera catalog: %w", err)
	}

	if len(cameras) == 0 {
		return nil, fmt.Errorf("camera catalog %s is empty", path)
	}

	return cameras, nil
}

// CountViews returns the total number of camera/view pairs, which is the
// per-pass work unit count.
func CountViews(cameras []models.Camera) int {
	total := 0
	for _, cam := range cameras {
		total += len(cam.Views)
	}
	return total
}
