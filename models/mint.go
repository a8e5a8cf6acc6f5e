package models

import (
	"fmt"
	"time"

	"github.com/guregu/null/v5"
)

type MintStatus string

const (
	MintStatusSuccess MintStatus = "success"
	MintStatusFailed  MintStatus = "failed"
	MintStatusSkipped MintStatus = "skipped"
	MintStatusDryRun  MintStatus = "dry_run"
)

// IsTerminal reports whether the status represents a non-retryable end state
// for which the attestation may be consumed. A failed mint must leave the
// attestation unconsumed so a legitimate retry can still succeed later.
func (s MintStatus) IsTerminal() bool {
	switch s {
	case MintStatusSuccess, MintStatusDryRun, MintStatusSkipped:
		return true
	}
	return false
}

// MintRequest describes one reward issuance to the external mint endpoint.
type MintRequest struct {
	ModelId        string
	TokenId        string
	DeltaValue     float64
	IdempotencyKey string
	Metadata       map[string]string
}

func (r MintRequest) Validate() error {
	if r.ModelId == "" {
		return fmt.Errorf("mint request model id is empty: %w", BadParameterError)
	}
	if r.TokenId == "" {
		return fmt.Errorf("mint request token id is empty: %w", BadParameterError)
	}
	if r.DeltaValue < 0 {
		return fmt.Errorf("mint request delta value %f is negative: %w", r.DeltaValue, BadParameterError)
	}
	return nil
}

// MintOutcomeStatus classifies one orchestration call.
type MintOutcomeStatus string

const (
	// MintOutcomeNotEligible: the decision was rejected; nothing was built,
	// consumed, minted or notified.
	MintOutcomeNotEligible MintOutcomeStatus = "not_eligible"

	// MintOutcomeProcessed: the mint hook ran to a terminal state and the
	// attestation lifecycle completed accordingly.
	MintOutcomeProcessed MintOutcomeStatus = "processed"
)

// MintOutcome is the result of one orchestration call.
type MintOutcome struct {
	Status          MintOutcomeStatus
	AttestationHash string
	Mint            MintResult
	Transition      *ScoreTransition
}

// MintResult is the immutable outcome of one mint attempt sequence. AuditRef
// is a fresh unique identifier so the attempt can be correlated in logs even
// on failure.
type MintResult struct {
	Status    MintStatus
	AuditRef  string
	Timestamp time.Time
	Error     null.String
}
