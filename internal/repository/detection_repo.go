package repository

import (
	"database/sql"
	"fmt"
	"time"

	"workzone-monitor/internal/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DetectionRepository handles durable storage: detection history and
// usage counters share one SQLite file.
type DetectionRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewDetectionRepository opens (or creates) the database and migrates it.
func NewDetectionRepository(dbPath string, logger *zap.Logger) (*DetectionRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &DetectionRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Detection repository initialized", zap.String("db_path", dbPath))

	return repo, nil
}

// migrate creates tables.
func (r *DetectionRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS detections (
		camera_id INTEGER NOT NULL,
		view_id INTEGER NOT NULL,
		location TEXT NOT NULL,
		first_detected_at DATETIME NOT NULL,
		last_updated_at DATETIME NOT NULL,
		detection_count INTEGER NOT NULL DEFAULT 1,
		risk_score INTEGER NOT NULL,
		workers INTEGER NOT NULL DEFAULT 0,
		vehicles INTEGER NOT NULL DEFAULT 0,
		equipment INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (camera_id, view_id)
	);

	CREATE INDEX IF NOT EXISTS idx_detections_view ON detections(view_id);
	CREATE INDEX IF NOT EXISTS idx_detections_updated ON detections(last_updated_at);

	CREATE TABLE IF NOT EXISTS usage_counters (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		daily_count INTEGER NOT NULL,
		monthly_count INTEGER NOT NULL,
		daily_reset_date TEXT NOT NULL,
		monthly_reset_date TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

// RecordDetection inserts or updates the history entry for a camera/view
// pair. The UPSERT keeps the operation atomic per key: repeat detections
// bump the counter and refresh the latest fields while the original
// first_detected_at is preserved.
func (r *DetectionRepository) RecordDetection(cameraID, viewID int, location string, result *models.DetectionResult) (*models.DetectionRecord, error) {
	now := r.now().UTC()

	query := `
		INSERT INTO detections (
			camera_id, view_id, location, first_detected_at, last_updated_at,
			detection_count, risk_score, workers, vehicles, equipment
		) VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?, 0)
		ON CONFLICT(camera_id, view_id) DO UPDATE SET
			location = excluded.location,
			last_updated_at = excluded.last_updated_at,
			detection_count = detection_count + 1,
			risk_score = excluded.risk_score,
			workers = excluded.workers,
			vehicles = excluded.vehicles
	`

	_, err := r.db.Exec(query,
		cameraID, viewID, location, now, now,
		result.RiskScore, result.Workers, result.Vehicles,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record detection: %w", err)
	}

	record, err := r.GetByKey(cameraID, viewID)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Detection recorded",
		zap.Int("camera_id", cameraID),
		zap.Int("view_id", viewID),
		zap.Int("detection_count", record.DetectionCount),
		zap.Int("risk_score", record.RiskScore))

	return record, nil
}

// GetByKey returns the history entry for a camera/view pair.
func (r *DetectionRepository) GetByKey(cameraID, viewID int) (*models.DetectionRecord, error) {
	query := `
		SELECT camera_id, view_id, location, first_detected_at, last_updated_at,
		       detection_count, risk_score, workers, vehicles, equipment
		FROM detections
		WHERE camera_id = ? AND view_id = ?
	`

	rec := &models.DetectionRecord{}
	err := r.db.QueryRow(query, cameraID, viewID).Scan(
		&rec.CameraID,
		&rec.ViewID,
		&rec.Location,
		&rec.FirstDetectedAt,
		&rec.LastUpdatedAt,
		&rec.DetectionCount,
		&rec.RiskScore,
		&rec.Workers,
		&rec.Vehicles,
		&rec.Equipment,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no detection record for camera %d view %d", cameraID, viewID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detection record: %w", err)
	}

	return rec, nil
}

// HasView reports whether any camera has a history entry for this view.
// The scheduler uses it for the skip-on-seen policy.
func (r *DetectionRepository) HasView(viewID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM detections WHERE view_id = ?)", viewID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check view history: %w", err)
	}
	return exists, nil
}

// ListAll returns every history entry, most recently updated first.
func (r *DetectionRepository) ListAll() ([]*models.DetectionRecord, error) {
	query := `
		SELECT camera_id, view_id, location, first_detected_at, last_updated_at,
		       detection_count, risk_score, workers, vehicles, equipment
		FROM detections
		ORDER BY last_updated_at DESC, camera_id, view_id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var records []*models.DetectionRecord
	for rows.Next() {
		rec := &models.DetectionRecord{}
		err := rows.Scan(
			&rec.CameraID,
			&rec.ViewID,
			&rec.Location,
			&rec.FirstDetectedAt,
			&rec.LastUpdatedAt,
			&rec.DetectionCount,
			&rec.RiskScore,
			&rec.Workers,
			&rec.Vehicles,
			&rec.Equipment,
		)
		if err != nil {
			r.logger.Error("Failed to scan detection record", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Stats summarizes the detection history.
func (r *DetectionRepository) Stats() (*models.HistoryStats, error) {
	stats := &models.HistoryStats{}

	err := r.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT camera_id), COALESCE(SUM(detection_count), 0)
		FROM detections
	`).Scan(&stats.TrackedViews, &stats.UniqueCameras, &stats.TotalDetections)
	if err != nil {
		return nil, fmt.Errorf("failed to query history stats: %w", err)
	}

	if stats.TrackedViews > 0 {
		records, err := r.ListAll()
		if err != nil {
			return nil, err
		}
		stats.LastDetection = records[0]
	}

	return stats, nil
}

// Clear wipes the detection history. Explicit reset only; nothing in the
// pipeline calls this automatically.
func (r *DetectionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM detections"); err != nil {
		return fmt.Errorf("failed to clear detections: %w", err)
	}
	r.logger.Warn("Detection history cleared")
	return nil
}

// LoadUsage reads the persisted usage counters, or nil if none exist yet.
func (r *DetectionRepository) LoadUsage() (*models.UsageCounters, error) {
	c := &models.UsageCounters{}
	err := r.db.QueryRow(`
		SELECT daily_count, monthly_count, daily_reset_date, monthly_reset_date
		FROM usage_counters WHERE id = 1
	`).Scan(&c.DailyCount, &c.MonthlyCount, &c.DailyResetDate, &c.MonthlyResetDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load usage counters: %w", err)
	}
	return c, nil
}

// SaveUsage writes the usage counters through.
func (r *DetectionRepository) SaveUsage(c *models.UsageCounters) error {
	_, err := r.db.Exec(`
		INSERT INTO usage_counters (id, daily_count, monthly_count, daily_reset_date, monthly_reset_date, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			daily_count = excluded.daily_count,
			monthly_count = excluded.monthly_count,
			daily_reset_date = excluded.daily_reset_date,
			monthly_reset_date = excluded.monthly_reset_date,
			updated_at = excluded.updated_at
	`, c.DailyCount, c.MonthlyCount, c.DailyResetDate, c.MonthlyResetDate, r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save usage counters: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *DetectionRepository) Close() error {
	return r.db.Close()
}
