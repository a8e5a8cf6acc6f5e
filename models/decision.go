package models

import (
	"fmt"
	"time"
)

// DecisionReason is the closed set of evaluation outcomes. Rejections are
// normal, expected values, not errors.
type DecisionReason string

const (
	ReasonAccepted                    DecisionReason = "accepted"
	ReasonInsufficientSamples         DecisionReason = "insufficient_samples"
	ReasonDatasetHashMismatch         DecisionReason = "dataset_hash_mismatch"
	ReasonDeltaBelowThreshold         DecisionReason = "delta_below_threshold"
	ReasonNotStatisticallySignificant DecisionReason = "not_statistically_significant"

	// cooldown reasons carry the expiry timestamp, see CooldownReason
	reasonCooldownPrefix = "cooldown_active_until_"
)

// CooldownReason builds the rejection reason for an active cooldown window,
// embedding the RFC3339 timestamp at which evaluation becomes possible again.
func CooldownReason(until time.Time) DecisionReason {
	return DecisionReason(fmt.Sprintf("%s%s", reasonCooldownPrefix, until.UTC().Format(time.RFC3339)))
}

func (r DecisionReason) IsCooldown() bool {
	return len(r) > len(reasonCooldownPrefix) && r[:len(reasonCooldownPrefix)] == reasonCooldownPrefix
}

// Decision is the full outcome of one Evaluate call. It is always produced,
// accepted or not, and always persisted as audit tags on the candidate run.
type Decision struct {
	Accepted              bool
	Reason                DecisionReason
	RunId                 string
	BaselineRunId         string
	ModelId               string
	DatasetHash           string
	MetricName            string
	DeltaPercentagePoints float64
	CI95LowPP             float64
	CI95HighPP            float64
	NCurrent              int
	NBaseline             int
	EvaluatedAt           time.Time
}

// EngineParams configure the statistical decision engine. Validated once at
// construction and immutable for the engine's lifetime.
type EngineParams struct {
	CooldownHours    float64
	MinExamples      int
	DeltaThresholdPP float64
}

func (p EngineParams) Validate() error {
	if p.CooldownHours < 0 {
		return fmt.Errorf("cooldown hours must be >= 0, got %f: %w", p.CooldownHours, BadParameterError)
	}
	if p.MinExamples < 1 {
		return fmt.Errorf("min examples must be >= 1, got %d: %w", p.MinExamples, BadParameterError)
	}
	if p.DeltaThresholdPP < 0 {
		return fmt.Errorf("delta threshold must be >= 0, got %f: %w", p.DeltaThresholdPP, BadParameterError)
	}
	return nil
}
