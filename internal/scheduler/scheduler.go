package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"workzone-monitor/internal/gemini"
	"workzone-monitor/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageSource fetches the current frame for a camera view.
type ImageSource interface {
	Fetch(ctx context.Context, cameraID, viewID int, url string) ([]byte, string, error)
}

// Classifier analyzes one frame and reports what it sees.
type Classifier interface {
	Classify(ctx context.Context, image []byte, mimeType string, meta models.CaptureMetadata) (*models.DetectionResult, error)
}

// HistoryStore is the detection-history slice of the repository.
type HistoryStore interface {
	RecordDetection(cameraID, viewID int, location string, result *models.DetectionResult) (*models.DetectionRecord, error)
	HasView(viewID int) (bool, error)
}

// Gate is asked before every oracle call and told after every call made.
type Gate interface {
	CanProceed() bool
	RecordCall()
}

// Broadcaster registers confirmed hazards for V2X distribution.
type Broadcaster interface {
	Register(ctx context.Context, result *models.DetectionResult, cameraID int, lat, lon float64) *models.BroadcastAlert
}

// ProgressSink receives a progress snapshot after every processed view.
type ProgressSink interface {
	Progress(p models.PassProgress)
}

// NoopSink discards progress updates.
type NoopSink struct{}

func (NoopSink) Progress(models.PassProgress) {}

// Config tunes the collection scheduler.
type Config struct {
	HistoryMinRisk int           // minimum risk score to persist a detection
	Pacing         time.Duration // delay between views within a pass
}

// Scheduler walks the camera catalog on a timer and runs every view
// through the detection pipeline.
type Scheduler struct {
	cameras     []models.Camera
	source      ImageSource
	classifier  Classifier
	history     HistoryStore
	gate        Gate
	broadcaster Broadcaster
	sink        ProgressSink
	cfg         Config
	logger      *zap.Logger

	mu         sync.Mutex
	running    bool
	collecting bool
	interval   time.Duration
	stopCh     chan struct{}
	lastPass   *models.PassSummary
}

// New assembles a scheduler over the given pipeline components.
func New(cameras []models.Camera, source ImageSource, classifier Classifier, history HistoryStore, gate Gate, broadcaster Broadcaster, sink ProgressSink, cfg Config, logger *zap.Logger) *Scheduler {
	if sink == nil {
		sink = NoopSink{}
	}
	return &Scheduler{
		cameras:     cameras,
		source:      source,
		classifier:  classifier,
		history:     history,
		gate:        gate,
		broadcaster: broadcaster,
		sink:        sink,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start begins periodic collection. The first pass runs immediately,
// then every interval until Stop.
func (s *Scheduler) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid collection interval %v: must be positive", interval)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("collection already running, start ignored")
		return nil
	}
	s.running = true
	s.interval = interval
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.logger.Info("starting periodic collection", zap.Duration("interval", interval))

	go s.loop(interval, stopCh)
	return nil
}

func (s *Scheduler) loop(interval time.Duration, stopCh chan struct{}) {
	s.RunOnce(context.Background())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-stopCh:
			return
		}
	}
}

// Stop halts periodic collection. A pass already in flight finishes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Warn("collection not running, stop ignored")
		return
	}
	close(s.stopCh)
	s.running = false
	s.logger.Info("periodic collection stopped")
}

// RunOnce executes a single collection pass over the whole catalog.
// At most one pass runs at a time: if one is already in flight the
// call returns immediately with no summary.
func (s *Scheduler) RunOnce(ctx context.Context) *models.PassSummary {
	s.mu.Lock()
	if s.collecting {
		s.mu.Unlock()
		s.logger.Warn("collection pass already in progress, skipping")
		return nil
	}
	s.collecting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.collecting = false
		s.mu.Unlock()
	}()

	summary := s.pass(ctx)

	s.mu.Lock()
	s.lastPass = summary
	s.mu.Unlock()

	return summary
}

func (s *Scheduler) pass(ctx context.Context) *models.PassSummary {
	collectionID := uuid.New().String()
	startedAt := time.Now()
	total := 0
	for _, cam := range s.cameras {
		total += len(cam.Views)
	}

	summary := &models.PassSummary{
		CollectionID: collectionID,
		StartedAt:    startedAt,
		Total:        total,
		Outcome:      models.PassCompleted,
	}

	if total == 0 {
		summary.Outcome = models.PassEmptyCatalog
		s.logger.Warn("camera catalog is empty, nothing to collect",
			zap.String("collection_id", collectionID))
		return summary
	}

	s.logger.Info("collection pass started",
		zap.String("collection_id", collectionID),
		zap.Int("views", total))

	current := 0
pass:
	for _, cam := range s.cameras {
		for _, view := range cam.Views {
			current++

			if err := s.processView(ctx, cam, view, summary); err != nil {
				if errors.Is(err, errBudgetExhausted) {
					summary.Outcome = models.PassAbortedBudget
					s.logger.Warn("usage limits reached, aborting pass",
						zap.String("collection_id", collectionID),
						zap.Int("remaining", total-current+1))
					break pass
				}
				summary.Errors++
				s.logger.Error("view processing failed",
					zap.Int("camera_id", cam.ID),
					zap.Int("view_id", view.ID),
					zap.Error(err))
			}

			s.sink.Progress(models.PassProgress{
				CollectionID: collectionID,
				Current:      current,
				Total:        total,
				Analyzed:     summary.Analyzed,
				Skipped:      summary.Skipped,
				HazardsFound: summary.HazardsFound,
				Errors:       summary.Errors,
				Percentage:   current * 100 / total,
			})

			if s.cfg.Pacing > 0 && current < total {
				time.Sleep(s.cfg.Pacing)
			}
		}
	}

	summary.Duration = time.Since(startedAt)
	s.logger.Info("collection pass finished",
		zap.String("collection_id", collectionID),
		zap.String("outcome", string(summary.Outcome)),
		zap.Int("analyzed", summary.Analyzed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("hazards", summary.HazardsFound),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", summary.Duration))

	return summary
}

var errBudgetExhausted = errors.New("usage budget exhausted")

func (s *Scheduler) processView(ctx context.Context, cam models.Camera, view models.View, summary *models.PassSummary) error {
	seen, err := s.history.HasView(view.ID)
	if err != nil {
		return fmt.Errorf("history lookup: %w", err)
	}
	if seen {
		summary.Skipped++
		s.logger.Debug("view already has a recorded detection, skipping",
			zap.Int("camera_id", cam.ID),
			zap.Int("view_id", view.ID))
		return nil
	}

	if !s.gate.CanProceed() {
		return errBudgetExhausted
	}

	image, mimeType, err := s.source.Fetch(ctx, cam.ID, view.ID, view.URL)
	if err != nil {
		return fmt.Errorf("fetch frame: %w", err)
	}

	// Oracle call is about to happen: charge it regardless of outcome.
	s.gate.RecordCall()

	meta := models.CaptureMetadata{
		CameraID:  cam.ID,
		ViewID:    view.ID,
		Location:  cam.Location,
		Latitude:  cam.Latitude,
		Longitude: cam.Longitude,
	}

	result, err := s.classifier.Classify(ctx, image, mimeType, meta)
	if err != nil {
		var cerr *gemini.ClassificationError
		if errors.As(err, &cerr) && cerr.Kind == gemini.ErrMalformedResponse {
			return fmt.Errorf("oracle returned malformed response: %w", err)
		}
		return fmt.Errorf("classify frame: %w", err)
	}

	summary.Analyzed++

	if !result.HasWorkZone {
		return nil
	}
	summary.HazardsFound++

	s.logger.Info("work zone detected",
		zap.Int("camera_id", cam.ID),
		zap.Int("view_id", view.ID),
		zap.String("location", cam.Location),
		zap.Int("risk_score", result.RiskScore),
		zap.Float64("confidence", result.Confidence))

	if result.RiskScore >= s.cfg.HistoryMinRisk {
		if _, err := s.history.RecordDetection(cam.ID, view.ID, cam.Location, result); err != nil {
			s.logger.Error("failed to persist detection",
				zap.Int("camera_id", cam.ID),
				zap.Int("view_id", view.ID),
				zap.Error(err))
		}
	}

	// Broadcast registration applies its own risk threshold.
	s.broadcaster.Register(ctx, result, cam.ID, cam.Latitude, cam.Longitude)

	return nil
}

// Status reports the scheduler's current state for the API.
type Status struct {
	Running    bool                `json:"running"`
	Collecting bool                `json:"collecting"`
	Interval   string              `json:"interval,omitempty"`
	LastPass   *models.PassSummary `json:"last_pass,omitempty"`
}

// Status returns a snapshot of scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:    s.running,
		Collecting: s.collecting,
		LastPass:   s.lastPass,
	}
	if s.running {
		st.Interval = s.interval.String()
	}
	return st
}
