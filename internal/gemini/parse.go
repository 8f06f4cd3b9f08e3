package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"workzone-monitor/internal/models"
)

// oracleResponse is the wire schema the model is instructed to produce.
type oracleResponse struct {
	HasWorkZone     bool     `json:"hasWorkZone"`
	Confidence      float64  `json:"confidence"`
	RiskScore       int      `json:"riskScore"`
	Workers         int      `json:"workers"`
	Vehicles        int      `json:"vehicles"`
	Barriers        bool     `json:"barriers"`
	Hazards         []string `json:"hazards"`
	Violations      []string `json:"violations"`
	Recommendations []string `json:"recommendations"`
}

// stripFences removes markdown code fences the model sometimes wraps its
// JSON in, despite being told not to.
func stripFences(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// parseDetection turns raw model output into a DetectionResult. Confidence
// is clamped to [0,1]; a risk score outside [1,10] on a positive detection
// is a malformed response, not something to clamp.
func parseDetection(text, modelName string, analyzedAt time.Time) (*models.DetectionResult, error) {
	clean := stripFences(text)

	var resp oracleResponse
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return nil, malformedError(fmt.Errorf("unparseable model output: %w", err))
	}

	if resp.HasWorkZone && (resp.RiskScore < 1 || resp.RiskScore > 10) {
		return nil, malformedError(fmt.Errorf("risk score %d outside 1-10", resp.RiskScore))
	}

	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &models.DetectionResult{
		HasWorkZone:     resp.HasWorkZone,
		Confidence:      confidence,
		RiskScore:       resp.RiskScore,
		Workers:         resp.Workers,
		Vehicles:        resp.Vehicles,
		Barriers:        resp.Barriers,
		Hazards:         resp.Hazards,
		Violations:      resp.Violations,
		Recommendations: resp.Recommendations,
		Model:           modelName,
		AnalyzedAt:      analyzedAt,
	}, nil
}
