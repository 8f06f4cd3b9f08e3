package models

import "time"

// PassOutcome classifies how a collection pass ended.
type PassOutcome string

const (
	PassCompleted     PassOutcome = "completed"
	PassAbortedBudget PassOutcome = "aborted_budget"
	PassEmptyCatalog  PassOutcome = "empty_catalog"
)

// PassProgress is emitted to the progress sink after every view in a pass.
type PassProgress struct {
	CollectionID string `json:"collection_id"`
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	Analyzed     int    `json:"analyzed"`
	Skipped      int    `json:"skipped"`
	HazardsFound int    `json:"hazards_found"`
	Errors       int    `json:"errors"`
	Percentage   int    `json:"percentage"`
}

// PassSummary is the sole externally observable result of a completed
// (or early-aborted) collection pass.
type PassSummary struct {
	CollectionID string        `json:"collection_id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Total        int           `json:"total"`
	Analyzed     int           `json:"analyzed"`
	Skipped      int           `json:"skipped"`
	HazardsFound int           `json:"hazards_found"`
	Errors       int           `json:"errors"`
	Outcome      PassOutcome   `json:"outcome"`
}
