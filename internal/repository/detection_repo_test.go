package repository

import (
	"path/filepath"
	"testing"
	"time"

	"workzone-monitor/internal/models"

	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) *DetectionRepository {
	t.Helper()
	repo, err := NewDetectionRepository(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewDetectionRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleResult(risk int) *models.DetectionResult {
	return &models.DetectionResult{
		HasWorkZone: true,
		Confidence:  0.9,
		RiskScore:   risk,
		Workers:     3,
		Vehicles:    2,
		Barriers:    true,
		AnalyzedAt:  time.Now(),
	}
}

func TestRecordDetectionFirstInsert(t *testing.T) {
	repo := newTestRepo(t)

	rec, err := repo.RecordDetection(12, 3, "QEW at Guelph Line", sampleResult(7))
	if err != nil {
		t.Fatalf("RecordDetection: %v", err)
	}

	if rec.DetectionCount != 1 {
		t.Errorf("detection_count = %d, want 1", rec.DetectionCount)
	}
	if !rec.FirstDetectedAt.Equal(rec.LastUpdatedAt) {
		t.Errorf("first insert should have first == last: %v vs %v", rec.FirstDetectedAt, rec.LastUpdatedAt)
	}
	if rec.RiskScore != 7 || rec.Workers != 3 || rec.Vehicles != 2 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestRecordDetectionRepeatUpdatesInPlace(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }

	first, err := repo.RecordDetection(12, 3, "QEW at Guelph Line", sampleResult(7))
	if err != nil {
		t.Fatalf("first RecordDetection: %v", err)
	}

	repo.now = func() time.Time { return base.Add(time.Hour) }
	second, err := repo.RecordDetection(12, 3, "QEW at Guelph Line", sampleResult(4))
	if err != nil {
		t.Fatalf("second RecordDetection: %v", err)
	}

	if second.DetectionCount != 2 {
		t.Errorf("detection_count = %d, want 2", second.DetectionCount)
	}
	if !second.FirstDetectedAt.Equal(first.FirstDetectedAt) {
		t.Errorf("first_detected_at changed: %v -> %v", first.FirstDetectedAt, second.FirstDetectedAt)
	}
	if !second.LastUpdatedAt.After(second.FirstDetectedAt) {
		t.Errorf("last_updated_at not advanced: %v", second.LastUpdatedAt)
	}
	if second.RiskScore != 4 {
		t.Errorf("risk_score = %d, want latest value 4", second.RiskScore)
	}

	// Still exactly one row for the key.
	records, err := repo.ListAll()
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestDifferentViewsAreSeparateKeys(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.RecordDetection(12, 3, "loc", sampleResult(7)); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.RecordDetection(12, 4, "loc", sampleResult(5)); err != nil {
		t.Fatal(err)
	}

	records, err := repo.ListAll()
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestHasView(t *testing.T) {
	repo := newTestRepo(t)

	seen, err := repo.HasView(3)
	if err != nil {
		t.Fatalf("HasView: %v", err)
	}
	if seen {
		t.Fatal("empty store should have no views")
	}

	if _, err := repo.RecordDetection(12, 3, "loc", sampleResult(7)); err != nil {
		t.Fatal(err)
	}

	seen, err = repo.HasView(3)
	if err != nil {
		t.Fatalf("HasView: %v", err)
	}
	if !seen {
		t.Fatal("expected view 3 to be seen")
	}
}

func TestRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	want, err := repo.RecordDetection(7, 9, "QEW at Brant St", sampleResult(8))
	if err != nil {
		t.Fatalf("RecordDetection: %v", err)
	}

	got, err := repo.GetByKey(7, 9)
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}

	if got.CameraID != want.CameraID || got.ViewID != want.ViewID ||
		got.Location != want.Location || got.DetectionCount != want.DetectionCount ||
		got.RiskScore != want.RiskScore || got.Workers != want.Workers ||
		got.Vehicles != want.Vehicles || got.Equipment != want.Equipment {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
	if !got.FirstDetectedAt.Equal(want.FirstDetectedAt) || !got.LastUpdatedAt.Equal(want.LastUpdatedAt) {
		t.Fatalf("timestamps differ: got %v/%v, want %v/%v",
			got.FirstDetectedAt, got.LastUpdatedAt, want.FirstDetectedAt, want.LastUpdatedAt)
	}
}

func TestClear(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.RecordDetection(12, 3, "loc", sampleResult(7)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	records, err := repo.ListAll()
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty store after clear, got %d records", len(records))
	}
}

func TestStats(t *testing.T) {
	repo := newTestRepo(t)

	repo.RecordDetection(12, 3, "loc a", sampleResult(7))
	repo.RecordDetection(12, 3, "loc a", sampleResult(8))
	repo.RecordDetection(15, 6, "loc b", sampleResult(5))

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.UniqueCameras != 2 {
		t.Errorf("unique_cameras = %d, want 2", stats.UniqueCameras)
	}
	if stats.TrackedViews != 2 {
		t.Errorf("tracked_views = %d, want 2", stats.TrackedViews)
	}
	if stats.TotalDetections != 3 {
		t.Errorf("total_detections = %d, want 3", stats.TotalDetections)
	}
	if stats.LastDetection == nil {
		t.Fatal("expected last detection")
	}
}

func TestUsageCountersRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	loaded, err := repo.LoadUsage()
	if err != nil {
		t.Fatalf("LoadUsage: %v", err)
	}
	if loaded != nil {
		t.Fatal("expected nil counters on fresh store")
	}

	want := &models.UsageCounters{
		DailyCount:       12,
		MonthlyCount:     240,
		DailyResetDate:   "2026-08-31",
		MonthlyResetDate: "2026-08",
	}
	if err := repo.SaveUsage(want); err != nil {
		t.Fatalf("SaveUsage: %v", err)
	}

	// Second save overwrites the singleton row.
	want.DailyCount = 13
	want.MonthlyCount = 241
	if err := repo.SaveUsage(want); err != nil {
		t.Fatalf("SaveUsage: %v", err)
	}

	loaded, err = repo.LoadUsage()
	if err != nil {
		t.Fatalf("LoadUsage: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected counters after save")
	}
	if *loaded != *want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", loaded, want)
	}
}
