// Package vrsu is the client for the external Virtual Roadside Unit
// broadcast service.
package vrsu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"workzone-monitor/internal/models"

	"go.uber.org/zap"
)

// Client calls the vRSU broadcast API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// analysisPayload mirrors the vRSU service's expected request body.
type analysisPayload struct {
	CameraID       string   `json:"camera_id"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	RiskScore      int      `json:"risk_score"`
	Workers        int      `json:"workers"`
	Vehicles       int      `json:"vehicles"`
	DistanceToZone int      `json:"distance_to_zone"`
	Hazards        []string `json:"hazards"`
	Violations     []string `json:"violations"`
	Confidence     float64  `json:"confidence"`
}

type broadcastRequest struct {
	Analysis    analysisPayload `json:"analysis"`
	MessageType string          `json:"message_type"`
	Priority    string          `json:"priority"`
}

// BroadcastResponse is the vRSU service's acknowledgement.
type BroadcastResponse struct {
	MessageID       string `json:"message_id"`
	MessageType     string `json:"message_type"`
	MessageSize     int    `json:"message_size"`
	BroadcastStatus string `json:"broadcast_status"`
	Timestamp       string `json:"timestamp"`
}

// NewClient creates a new vRSU client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Broadcast submits an alert for over-the-air transmission. A non-2xx
// status is a transport failure; callers treat it as non-fatal.
func (c *Client) Broadcast(ctx context.Context, alert *models.BroadcastAlert, result *models.DetectionResult) (*BroadcastResponse, error) {
	reqBody := broadcastRequest{
		Analysis: analysisPayload{
			CameraID:       fmt.Sprintf("CAMERA_%d", alert.CameraID),
			Latitude:       alert.Latitude,
			Longitude:      alert.Longitude,
			RiskScore:      alert.RiskScore,
			Workers:        result.Workers,
			Vehicles:       result.Vehicles,
			DistanceToZone: 500,
			Hazards:        result.Hazards,
			Violations:     result.Violations,
			Confidence:     result.Confidence,
		},
		MessageType: alert.MessageType,
		Priority:    string(alert.Priority),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal broadcast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/broadcast", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send broadcast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("vrsu service returned status %d", resp.StatusCode)
	}

	var broadcastResp BroadcastResponse
	if err := json.NewDecoder(resp.Body).Decode(&broadcastResp); err != nil {
		return nil, fmt.Errorf("failed to decode broadcast response: %w", err)
	}

	c.logger.Info("vRSU broadcast sent",
		zap.String("message_id", broadcastResp.MessageID),
		zap.String("message_type", broadcastResp.MessageType),
		zap.Int("message_size", broadcastResp.MessageSize),
		zap.String("status", broadcastResp.BroadcastStatus))

	return &broadcastResp, nil
}

// Notify lets the client plug into the broadcast registrar's subscriber
// fan-out.
func (c *Client) Notify(ctx context.Context, alert *models.BroadcastAlert, result *models.DetectionResult) error {
	_, err := c.Broadcast(ctx, alert, result)
	return err
}

// Healthy reports whether the vRSU service answers its root endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
