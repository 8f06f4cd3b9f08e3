package v2x

import (
	"context"
	"encoding/json"
	"fmt"

	"workzone-monitor/internal/models"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// alertEnvelope is the wire format vehicles receive on the alert subject.
type alertEnvelope struct {
	Alert      *models.BroadcastAlert `json:"alert"`
	Workers    int                    `json:"workers"`
	Vehicles   int                    `json:"vehicles"`
	Hazards    []string               `json:"hazards"`
	Violations []string               `json:"violations"`
	Confidence float64                `json:"confidence"`
}

// NATSPublisher fans registered alerts out over NATS so simulated
// vehicles can subscribe to v2x.alerts.> instead of polling.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn *nats.Conn, logger *zap.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, logger: logger}
}

// Notify publishes the alert to v2x.alerts.camera.<id>.
func (p *NATSPublisher) Notify(_ context.Context, alert *models.BroadcastAlert, result *models.DetectionResult) error {
	payload, err := json.Marshal(alertEnvelope{
		Alert:      alert,
		Workers:    result.Workers,
		Vehicles:   result.Vehicles,
		Hazards:    result.Hazards,
		Violations: result.Violations,
		Confidence: result.Confidence,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert envelope: %w", err)
	}

	subject := fmt.Sprintf("v2x.alerts.camera.%d", alert.CameraID)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish alert to %s: %w", subject, err)
	}

	p.logger.Debug("Alert published",
		zap.String("subject", subject),
		zap.String("alert_id", alert.ID),
		zap.Int("payload_bytes", len(payload)))

	return nil
}
