package models

import "time"

// Priority of a V2X broadcast, derived from the detection risk score.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// BroadcastAlert is a time-bounded, geolocated advisory derived from a
// qualifying detection. Immutable after creation; expiry is derived from
// the clock on read.
type BroadcastAlert struct {
	ID                string    `json:"id"`
	SourceDetectionID string    `json:"source_detection_id"`
	CameraID          int       `json:"camera_id"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	RiskScore         int       `json:"risk_score"`
	Priority          Priority  `json:"priority"`
	MessageType       string    `json:"message_type"`
	RadiusMeters      float64   `json:"radius_meters"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// Active reports whether the alert is still broadcastable at time now.
func (a *BroadcastAlert) Active(now time.Time) bool {
	return now.Before(a.ExpiresAt)
}

// AlertDelivery is what a receiver inside an alert's radius gets back
// from a range check.
type AlertDelivery struct {
	BroadcastID   string    `json:"broadcast_id"`
	CameraID      int       `json:"camera_id"`
	RiskScore     int       `json:"risk_score"`
	Priority      Priority  `json:"priority"`
	DistanceMeters float64  `json:"distance_meters"`
	Message       string    `json:"message"`
	SpeedLimitKmh int       `json:"speed_limit_kmh"`
	ReceivedAt    time.Time `json:"received_at"`
}
