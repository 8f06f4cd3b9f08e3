// Package gemini wraps the Gemini vision API for work zone classification.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"workzone-monitor/internal/models"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client wraps the Gemini API client.
type Client struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	logger      *zap.Logger
	modelName   string
	callTimeout time.Duration
	now         func() time.Time
}

// Config for the Gemini client.
type Config struct {
	APIKey      string
	ModelName   string // Default: "gemini-2.0-flash-exp"
	CallTimeout time.Duration
}

// NewClient creates a new Gemini client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-2.0-flash-exp" // Fast and cheap
	}

	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 60 * time.Second
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)

	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemInstruction)},
	}

	model.ResponseMIMEType = "application/json"

	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.3), // Lower for consistent classification
		TopP:            genai.Ptr[float32](0.9),
		TopK:            genai.Ptr[int32](40),
		MaxOutputTokens: genai.Ptr[int32](1000),
	}

	logger.Info("Gemini client initialized",
		zap.String("model", cfg.ModelName),
		zap.Duration("call_timeout", cfg.CallTimeout))

	return &Client{
		client:      client,
		model:       model,
		logger:      logger,
		modelName:   cfg.ModelName,
		callTimeout: cfg.CallTimeout,
		now:         time.Now,
	}, nil
}

// Close closes the Gemini client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Classify submits one camera frame for work zone analysis. The metadata is
// forwarded for logging only; the model sees just the image and the prompt.
// Failures come back as *ClassificationError so the scheduler can tell a
// network problem from garbage output.
func (c *Client) Classify(ctx context.Context, image []byte, mimeType string, meta models.CaptureMetadata) (*models.DetectionResult, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image for camera %d view %d", meta.CameraID, meta.ViewID)
	}

	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("unsupported image type %q", mimeType)
	}
	format := strings.TrimPrefix(mimeType, "image/")

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx,
		genai.Text(AnalysisPrompt),
		genai.ImageData(format, image),
	)
	if err != nil {
		c.logger.Error("Gemini API error",
			zap.Int("camera_id", meta.CameraID),
			zap.Int("view_id", meta.ViewID),
			zap.Error(err))
		return nil, transportError(fmt.Errorf("gemini API error: %w", err))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, malformedError(fmt.Errorf("empty response from gemini"))
	}

	textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, malformedError(fmt.Errorf("unexpected response part type %T", resp.Candidates[0].Content.Parts[0]))
	}

	result, err := parseDetection(string(textPart), c.modelName, c.now())
	if err != nil {
		c.logger.Error("Failed to parse gemini response",
			zap.Int("camera_id", meta.CameraID),
			zap.Int("view_id", meta.ViewID),
			zap.String("raw_response", string(textPart)),
			zap.Error(err))
		return nil, err
	}

	c.logger.Debug("Frame classified",
		zap.Int("camera_id", meta.CameraID),
		zap.Int("view_id", meta.ViewID),
		zap.Bool("has_work_zone", result.HasWorkZone),
		zap.Int("risk_score", result.RiskScore),
		zap.Float64("confidence", result.Confidence))

	return result, nil
}

// ModelInfo returns model information for the health endpoint.
func (c *Client) ModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider":     "gemini",
		"model":        c.modelName,
		"call_timeout": c.callTimeout.String(),
	}
}
