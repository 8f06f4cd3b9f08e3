package models

import "time"

// DetectionResult is the vision model's structured judgment of a single
// camera frame. Produced once per classification call, never mutated.
type DetectionResult struct {
	HasWorkZone     bool      `json:"hasWorkZone"`
	Confidence      float64   `json:"confidence"`
	RiskScore       int       `json:"riskScore"`
	Workers         int       `json:"workers"`
	Vehicles        int       `json:"vehicles"`
	Barriers        bool      `json:"barriers"`
	Hazards         []string  `json:"hazards"`
	Violations      []string  `json:"violations"`
	Recommendations []string  `json:"recommendations"`
	Model           string    `json:"model"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

// DetectionRecord is the durable history entry for a (camera, view) pair.
// Created on the first detection for the key, updated in place afterwards.
type DetectionRecord struct {
	CameraID        int       `json:"camera_id" db:"camera_id"`
	ViewID          int       `json:"view_id" db:"view_id"`
	Location        string    `json:"location" db:"location"`
	FirstDetectedAt time.Time `json:"first_detected_at" db:"first_detected_at"`
	LastUpdatedAt   time.Time `json:"last_updated_at" db:"last_updated_at"`
	DetectionCount  int       `json:"detection_count" db:"detection_count"`
	RiskScore       int       `json:"risk_score" db:"risk_score"`
	Workers         int       `json:"workers" db:"workers"`
	Vehicles        int       `json:"vehicles" db:"vehicles"`
	Equipment       int       `json:"equipment" db:"equipment"`
}

// HistoryStats summarizes the detection history for the dashboard.
type HistoryStats struct {
	UniqueCameras   int              `json:"unique_cameras"`
	TotalDetections int              `json:"total_detections"`
	TrackedViews    int              `json:"tracked_views"`
	LastDetection   *DetectionRecord `json:"last_detection,omitempty"`
}
