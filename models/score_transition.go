package models

import (
	"time"
)

// ScoreTransition is one entry of a model's append-only score audit trail.
// Ordering is insertion order; the ledger never rewrites past entries.
type ScoreTransition struct {
	ModelId               string         `json:"model_id"`
	AttestationHash       string         `json:"attestation_hash"`
	BaselineRunId         string         `json:"baseline_run_id"`
	RunId                 string         `json:"run_id"`
	FromScore             float64        `json:"from_score"`
	ToScore               float64        `json:"to_score"`
	DeltaPercentagePoints float64        `json:"delta_percentage_points"`
	Reason                DecisionReason `json:"reason"`
	RecordedAt            time.Time      `json:"recorded_at"`
}
