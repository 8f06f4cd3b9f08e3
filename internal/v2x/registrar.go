// Package v2x turns qualifying detections into addressable broadcast
// alerts and answers receiver range queries against the active set.
package v2x

import (
	"context"
	"fmt"
	"sync"
	"time"

	"workzone-monitor/internal/geo"
	"workzone-monitor/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subscriber is notified of every registered alert. Implementations must
// tolerate being called once per alert; failures are logged by the
// registrar and never propagate to the pipeline.
type Subscriber interface {
	Notify(ctx context.Context, alert *models.BroadcastAlert, result *models.DetectionResult) error
}

// Config for the registrar.
type Config struct {
	BroadcastMinRisk int           // minimum risk score to register, default 5
	RadiusMeters     float64       // default 1000
	TTL              time.Duration // default 1 hour
}

// DefaultConfig returns the corridor demo defaults.
func DefaultConfig() Config {
	return Config{
		BroadcastMinRisk: 5,
		RadiusMeters:     1000,
		TTL:              time.Hour,
	}
}

// Registrar maintains the in-memory active broadcast set. Writes happen
// only during a collection pass; receiver checks read concurrently, so
// reads take a snapshot under RLock.
type Registrar struct {
	cfg         Config
	logger      *zap.Logger
	subscribers []Subscriber
	now         func() time.Time

	mu     sync.RWMutex
	alerts map[string]*models.BroadcastAlert // keyed by source detection ID
}

// NewRegistrar creates a registrar with the given subscribers.
func NewRegistrar(cfg Config, logger *zap.Logger, subscribers ...Subscriber) *Registrar {
	if cfg.BroadcastMinRisk == 0 {
		cfg.BroadcastMinRisk = 5
	}
	if cfg.RadiusMeters == 0 {
		cfg.RadiusMeters = 1000
	}
	if cfg.TTL == 0 {
		cfg.TTL = time.Hour
	}

	return &Registrar{
		cfg:         cfg,
		logger:      logger,
		subscribers: subscribers,
		now:         time.Now,
		alerts:      make(map[string]*models.BroadcastAlert),
	}
}

// Register creates and stores an alert for a qualifying detection, then
// fans it out to subscribers. Returns nil when the detection does not
// qualify: no hazard, or risk below the broadcast threshold.
func (r *Registrar) Register(ctx context.Context, result *models.DetectionResult, cameraID int, lat, lon float64) *models.BroadcastAlert {
	if !result.HasWorkZone {
		return nil
	}
	if result.RiskScore < r.cfg.BroadcastMinRisk {
		r.logger.Debug("Detection below broadcast threshold",
			zap.Int("camera_id", cameraID),
			zap.Int("risk_score", result.RiskScore),
			zap.Int("threshold", r.cfg.BroadcastMinRisk))
		return nil
	}

	now := r.now()
	sourceID := fmt.Sprintf("WZ_CAMERA_%d", cameraID)

	alert := &models.BroadcastAlert{
		ID:                uuid.New().String(),
		SourceDetectionID: sourceID,
		CameraID:          cameraID,
		Latitude:          lat,
		Longitude:         lon,
		RiskScore:         result.RiskScore,
		Priority:          PriorityForRisk(result.RiskScore),
		MessageType:       MessageTypeForRisk(result.RiskScore),
		RadiusMeters:      r.cfg.RadiusMeters,
		CreatedAt:         now,
		ExpiresAt:         now.Add(r.cfg.TTL),
	}

	r.mu.Lock()
	// Last write wins per source; expired entries are dropped while the
	// lock is held anyway.
	for id, existing := range r.alerts {
		if !existing.Active(now) {
			delete(r.alerts, id)
		}
	}
	r.alerts[sourceID] = alert
	r.mu.Unlock()

	r.logger.Info("Broadcast registered",
		zap.String("alert_id", alert.ID),
		zap.Int("camera_id", cameraID),
		zap.Int("risk_score", result.RiskScore),
		zap.String("priority", string(alert.Priority)),
		zap.String("message_type", alert.MessageType))

	for _, sub := range r.subscribers {
		if err := sub.Notify(ctx, alert, result); err != nil {
			r.logger.Error("Broadcast subscriber failed",
				zap.String("alert_id", alert.ID),
				zap.Error(err))
		}
	}

	return alert
}

// Active returns a snapshot of unexpired alerts. Expiry is filter-on-read;
// nothing sweeps the map in the background.
func (r *Registrar) Active() []models.BroadcastAlert {
	now := r.now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]models.BroadcastAlert, 0, len(r.alerts))
	for _, alert := range r.alerts {
		if alert.Active(now) {
			active = append(active, *alert)
		}
	}
	return active
}

// CheckReceiver tests one receiver position against one alert. Returns a
// delivery when the receiver is inside the radius and the alert is still
// active, nil otherwise.
func (r *Registrar) CheckReceiver(lat, lon float64, alert *models.BroadcastAlert) *models.AlertDelivery {
	now := r.now()
	if !alert.Active(now) {
		return nil
	}

	distance := geo.HaversineMeters(lat, lon, alert.Latitude, alert.Longitude)
	if distance > alert.RadiusMeters {
		return nil
	}

	return &models.AlertDelivery{
		BroadcastID:    alert.ID,
		CameraID:       alert.CameraID,
		RiskScore:      alert.RiskScore,
		Priority:       alert.Priority,
		DistanceMeters: distance,
		Message:        alertMessage(alert.RiskScore, distance),
		SpeedLimitKmh:  SpeedLimitKmh(alert.Priority),
		ReceivedAt:     now,
	}
}

// CheckReceiverAll sweeps every active alert for one receiver. O(alerts)
// per call; fine at corridor scale.
func (r *Registrar) CheckReceiverAll(lat, lon float64) []models.AlertDelivery {
	var deliveries []models.AlertDelivery
	for _, alert := range r.Active() {
		alert := alert
		if d := r.CheckReceiver(lat, lon, &alert); d != nil {
			deliveries = append(deliveries, *d)
		}
	}
	return deliveries
}
