package models

import (
	"github.com/cockroachdb/errors"
)

// Base errors, shared across components
var (
	// BadParameterError marks a programmer or data error: malformed input,
	// invalid configuration. Never retried.
	BadParameterError = errors.New("bad parameter")

	// NotFoundError is returned when a run, spec or record does not exist
	NotFoundError = errors.New("not found")

	// ConflictError is the base of all replay signals
	ConflictError = errors.New("duplicate value")
)

// Replay signals. Callers must treat these as "already handled successfully",
// not as failures needing a retry.
var (
	ErrAttestationAlreadyConsumed = errors.Wrap(ConflictError, "attestation already consumed")
	ErrNonceAlreadyUsed           = errors.Wrap(ConflictError, "nonce already used")
)

// Evaluation related errors
var (
	// ErrUnresolvableMetric: no explicit metric name tag, and the run does not
	// carry exactly one numeric metric to infer from.
	ErrUnresolvableMetric = errors.Wrap(BadParameterError, "cannot resolve primary metric for run")

	ErrInvalidDatasetHash = errors.Wrap(BadParameterError,
		"dataset hash must match sha256:<64 lowercase hex>")
	ErrInvalidSampleSize   = errors.Wrap(BadParameterError, "sample size must be a positive integer")
	ErrMetricNotProportion = errors.Wrap(BadParameterError,
		"significance test requires metric values in [0,1]")
)

// Orchestration errors
var (
	// ErrAttestationSpecSuperseded is fatal for the current attempt: the
	// attestation must be regenerated against the now-active benchmark spec.
	ErrAttestationSpecSuperseded = errors.New("attestation references a superseded benchmark spec")

	// ErrStoreUnavailable wraps backing store connectivity failures so callers
	// can distinguish them from logical rejections. No retry policy is applied
	// inside this core.
	ErrStoreUnavailable = errors.New("backing store unavailable")
)
