package vrsu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workzone-monitor/internal/models"

	"go.uber.org/zap"
)

func testAlert() (*models.BroadcastAlert, *models.DetectionResult) {
	now := time.Now()
	alert := &models.BroadcastAlert{
		ID:                "alert-1",
		SourceDetectionID: "WZ_CAMERA_12",
		CameraID:          12,
		Latitude:          43.3,
		Longitude:         -79.8,
		RiskScore:         8,
		Priority:          models.PriorityHigh,
		MessageType:       "RSA",
		RadiusMeters:      1000,
		CreatedAt:         now,
		ExpiresAt:         now.Add(time.Hour),
	}
	result := &models.DetectionResult{
		HasWorkZone: true,
		Confidence:  0.95,
		RiskScore:   8,
		Workers:     4,
		Vehicles:    2,
		Hazards:     []string{"workers near live lane"},
		Violations:  []string{"missing barrier"},
		AnalyzedAt:  now,
	}
	return alert, result
}

func TestBroadcastSuccess(t *testing.T) {
	var gotBody broadcastRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/broadcast" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(BroadcastResponse{
			MessageID:       "msg-42",
			MessageType:     "RSA",
			MessageSize:     312,
			BroadcastStatus: "transmitted",
			Timestamp:       time.Now().Format(time.RFC3339),
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	alert, result := testAlert()

	resp, err := client.Broadcast(context.Background(), alert, result)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if resp.MessageID != "msg-42" {
		t.Errorf("message_id = %s, want msg-42", resp.MessageID)
	}

	if gotBody.Analysis.CameraID != "CAMERA_12" {
		t.Errorf("camera_id = %s, want CAMERA_12", gotBody.Analysis.CameraID)
	}
	if gotBody.Analysis.RiskScore != 8 || gotBody.Analysis.Workers != 4 {
		t.Errorf("unexpected analysis payload: %+v", gotBody.Analysis)
	}
	if gotBody.Priority != "HIGH" || gotBody.MessageType != "RSA" {
		t.Errorf("priority/type = %s/%s", gotBody.Priority, gotBody.MessageType)
	}
}

func TestBroadcastNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	alert, result := testAlert()

	if _, err := client.Broadcast(context.Background(), alert, result); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestBroadcastConnectionRefused(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", zap.NewNop())
	alert, result := testAlert()

	if _, err := client.Broadcast(context.Background(), alert, result); err == nil {
		t.Fatal("expected error for unreachable service")
	}
}
