package models

// Tag keys persisted on runs in the tracking store. The namespace is fixed so
// external tooling can reconstruct decisions and mint state without calling
// back into this service.
const (
	TagMetricName  = "deltaone.metric_name"
	TagSampleSize  = "deltaone.sample_size"
	TagDatasetHash = "deltaone.dataset_hash"
	TagModelId     = "deltaone.model_id"

	TagAccepted      = "deltaone.accepted"
	TagReason        = "deltaone.reason"
	TagDeltaPP       = "deltaone.delta_pp"
	TagCI95LowPP     = "deltaone.ci95_low_pp"
	TagCI95HighPP    = "deltaone.ci95_high_pp"
	TagNCurrent      = "deltaone.n_current"
	TagNBaseline     = "deltaone.n_baseline"
	TagBaselineRunId = "deltaone.baseline_run_id"
	TagEvaluatedAt   = "deltaone.evaluated_at"

	TagMintStatus          = "mint.status"
	TagMintAttestationHash = "mint.attestation_hash"
	TagMintAuditRef        = "mint.audit_ref"

	TagCanonicalScore = "deltaone.canonical_score"
)
