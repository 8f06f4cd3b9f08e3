package v2x

import (
	"fmt"

	"workzone-monitor/internal/geo"
	"workzone-monitor/internal/models"
)

// PriorityForRisk maps a risk score to a broadcast priority. The
// thresholds drive the speed advisories in generated messages, so the
// boundaries (5, 7, 9) are policy, not tunables.
func PriorityForRisk(riskScore int) models.Priority {
	switch {
	case riskScore >= 9:
		return models.PriorityCritical
	case riskScore >= 7:
		return models.PriorityHigh
	case riskScore >= 5:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// SpeedLimitKmh returns the advisory speed for a priority.
func SpeedLimitKmh(p models.Priority) int {
	switch p {
	case models.PriorityCritical, models.PriorityHigh:
		return 40
	case models.PriorityMedium:
		return 60
	default:
		return 80
	}
}

// MessageTypeForRisk follows SAE J2735 naming: road side alerts for
// serious hazards, traveler information otherwise.
func MessageTypeForRisk(riskScore int) string {
	if riskScore >= 7 {
		return "RSA"
	}
	return "TIM"
}

// alertMessage renders the in-vehicle text for a receiver at the given
// distance from the zone.
func alertMessage(riskScore int, distanceMeters float64) string {
	distance := geo.FormatDistance(distanceMeters)
	speed := SpeedLimitKmh(PriorityForRisk(riskScore))

	switch {
	case riskScore >= 9:
		return fmt.Sprintf("CRITICAL: Work zone %s ahead. DANGER - Slow to %d km/h.", distance, speed)
	case riskScore >= 7:
		return fmt.Sprintf("CAUTION: Work zone %s ahead. Slow to %d km/h. Workers present.", distance, speed)
	case riskScore >= 5:
		return fmt.Sprintf("ADVISORY: Work zone %s ahead. Reduce speed to %d km/h.", distance, speed)
	default:
		return fmt.Sprintf("INFO: Work zone %s ahead. Maintain safe speed.", distance)
	}
}
