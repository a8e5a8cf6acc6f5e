package usecases

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/deltaone/deltaone-backend/models"
	"github.com/deltaone/deltaone-backend/repositories"
	"github.com/deltaone/deltaone-backend/utils"
)

type AttestationRegistry interface {
	IsConsumed(ctx context.Context, hash string) (bool, error)
	Consume(ctx context.Context, hash string, record models.ConsumedAttestationRecord) error
}

type ScoreLedger interface {
	RecordTransition(ctx context.Context, transition models.ScoreTransition) (models.ScoreTransition, error)
}

type MintHook interface {
	Mint(ctx context.Context, request models.MintRequest) (models.MintResult, error)
}

type BenchmarkSpecResolver interface {
	GetActiveSpecForModel(ctx context.Context, modelId string) (*models.BenchmarkSpec, error)
}

type NotificationDispatcher interface {
	SendEvent(ctx context.Context, event models.DeltaOneEvent) error
}

type MintTagWriter interface {
	SetTag(ctx context.Context, runId, key, value string) error
}

// MintOrchestratorUsecase converts an accepted decision into at most one
// reward issuance: spec freshness check, replay check, mint, then consume and
// score transition, with notifications around the side effect. Rejected
// decisions are side-effect free by construction.
type MintOrchestratorUsecase struct {
	registry     AttestationRegistry
	ledger       ScoreLedger
	mintHook     MintHook
	specResolver BenchmarkSpecResolver
	notifier     NotificationDispatcher
	tagWriter    MintTagWriter
	clock        func() time.Time
}

func NewMintOrchestratorUsecase(
	registry AttestationRegistry,
	ledger ScoreLedger,
	mintHook MintHook,
	specResolver BenchmarkSpecResolver,
	notifier NotificationDispatcher,
	tagWriter MintTagWriter,
) MintOrchestratorUsecase {
	return MintOrchestratorUsecase{
		registry:     registry,
		ledger:       ledger,
		mintHook:     mintHook,
		specResolver: specResolver,
		notifier:     notifier,
		tagWriter:    tagWriter,
		clock:        func() time.Time { return time.Now().UTC() },
	}
}

// MintProcessOptions carry the request context of one orchestration call.
// SpecId and DatasetVersion pin the benchmark spec the attestation was built
// against; when empty, the currently active spec is used. Nonce, when set,
// additionally binds the attestation to a single logical submission.
type MintProcessOptions struct {
	TokenId        string
	Nonce          string
	SpecId         string
	DatasetVersion string
	Metadata       map[string]string
}

// AttestationFromDecision builds the canonical attestation payload for a
// decision. Exposed so the offline evaluate command and the orchestrator
// produce equal hashes from equivalent inputs.
func AttestationFromDecision(decision models.Decision, spec *models.BenchmarkSpec, nonce string) models.AttestationPayload {
	payload := models.AttestationPayload{
		ModelId:       decision.ModelId,
		DatasetHash:   decision.DatasetHash,
		MetricName:    decision.MetricName,
		RunId:         decision.RunId,
		BaselineRunId: decision.BaselineRunId,
		DeltaPP:       decision.DeltaPercentagePoints,
		Nonce:         nonce,
	}
	if spec != nil {
		payload.SpecId = spec.SpecId
		payload.DatasetVersion = spec.DatasetVersion
	}
	return payload
}

func (u MintOrchestratorUsecase) ProcessDecision(
	ctx context.Context,
	decision models.Decision,
	opts MintProcessOptions,
) (models.MintOutcome, error) {
	logger := utils.LoggerFromContext(ctx)

	if !decision.Accepted {
		return models.MintOutcome{Status: models.MintOutcomeNotEligible}, nil
	}

	activeSpec, err := u.specResolver.GetActiveSpecForModel(ctx, decision.ModelId)
	if err != nil {
		return models.MintOutcome{}, err
	}

	// Freshness runs before the replay check: a stale attestation is rejected
	// deterministically even when it was never consumed.
	attestationSpec := activeSpec
	if opts.SpecId != "" || opts.DatasetVersion != "" {
		if activeSpec == nil || activeSpec.SpecId != opts.SpecId || activeSpec.DatasetVersion != opts.DatasetVersion {
			return models.MintOutcome{}, errors.Wrapf(models.ErrAttestationSpecSuperseded,
				"attestation spec %s/%s, model %s", opts.SpecId, opts.DatasetVersion, decision.ModelId)
		}
		attestationSpec = &models.BenchmarkSpec{SpecId: opts.SpecId, DatasetVersion: opts.DatasetVersion}
	}

	hash, err := AttestationFromDecision(decision, attestationSpec, opts.Nonce).Hash()
	if err != nil {
		return models.MintOutcome{}, errors.Wrap(err, "could not compute attestation hash")
	}

	// Advisory only: the authoritative gate is Consume below.
	consumed, err := u.registry.IsConsumed(ctx, hash)
	if err != nil {
		return models.MintOutcome{}, err
	}
	if consumed {
		return models.MintOutcome{AttestationHash: hash},
			errors.Wrapf(models.ErrAttestationAlreadyConsumed, "hash %s", hash)
	}

	u.sendEvent(ctx, decision, models.EventModelImprovementAchieved, nil)

	mintResult, err := u.mintHook.Mint(ctx, models.MintRequest{
		ModelId:        decision.ModelId,
		TokenId:        opts.TokenId,
		DeltaValue:     decision.DeltaPercentagePoints,
		IdempotencyKey: hash,
		Metadata:       opts.Metadata,
	})
	if err != nil {
		return models.MintOutcome{AttestationHash: hash}, err
	}

	outcome := models.MintOutcome{
		Status:          models.MintOutcomeProcessed,
		AttestationHash: hash,
		Mint:            mintResult,
	}

	if mintResult.Status.IsTerminal() {
		record := models.ConsumedAttestationRecord{
			MintAuditRef:    mintResult.AuditRef,
			ModelId:         decision.ModelId,
			ConsumedAt:      u.clock(),
			DecisionSummary: repositories.DecisionSummary(decision),
		}
		if opts.Nonce != "" {
			record.Nonce = null.StringFrom(opts.Nonce)
		}
		if err := u.registry.Consume(ctx, hash, record); err != nil {
			return models.MintOutcome{AttestationHash: hash}, err
		}

		transition, err := u.ledger.RecordTransition(ctx, models.ScoreTransition{
			ModelId:               decision.ModelId,
			AttestationHash:       hash,
			BaselineRunId:         decision.BaselineRunId,
			RunId:                 decision.RunId,
			DeltaPercentagePoints: decision.DeltaPercentagePoints,
			Reason:                decision.Reason,
			RecordedAt:            u.clock(),
		})
		if err != nil {
			return models.MintOutcome{AttestationHash: hash}, err
		}
		outcome.Transition = &transition
	}

	// Annotation happens for failed mints too: the audit ref exists to
	// correlate failed attempts with hook-side records.
	u.annotateRun(ctx, decision.RunId, hash, mintResult)

	u.sendEvent(ctx, decision, models.EventModelRewardMinted, map[string]any{
		"mint_status":      string(mintResult.Status),
		"attestation_hash": hash,
		"audit_ref":        mintResult.AuditRef,
	})

	logger.InfoContext(ctx, "mint orchestration completed",
		"run_id", decision.RunId,
		"model_id", decision.ModelId,
		"attestation_hash", hash,
		"mint_status", string(mintResult.Status),
	)

	return outcome, nil
}

// annotateRun writes the mint state tags on the candidate run. The mint
// already happened; a tag failure is logged, not propagated.
func (u MintOrchestratorUsecase) annotateRun(ctx context.Context, runId, hash string, result models.MintResult) {
	logger := utils.LoggerFromContext(ctx)

	tags := map[string]string{
		models.TagMintStatus:          string(result.Status),
		models.TagMintAttestationHash: hash,
		models.TagMintAuditRef:        result.AuditRef,
	}
	for key, value := range tags {
		if err := u.tagWriter.SetTag(ctx, runId, key, value); err != nil {
			logger.ErrorContext(ctx, "could not write mint tag",
				"run_id", runId, "tag", key, "error", err.Error())
		}
	}
}

// sendEvent is fire-and-forget: delivery failures are logged and never fail
// the orchestration call.
func (u MintOrchestratorUsecase) sendEvent(
	ctx context.Context,
	decision models.Decision,
	eventType models.DeltaOneEventType,
	data map[string]any,
) {
	logger := utils.LoggerFromContext(ctx)

	err := u.notifier.SendEvent(ctx, models.DeltaOneEvent{
		Id:            uuid.NewString(),
		EventType:     eventType,
		RunId:         decision.RunId,
		BaselineRunId: decision.BaselineRunId,
		ModelId:       decision.ModelId,
		DatasetHash:   decision.DatasetHash,
		MetricName:    decision.MetricName,
		Data:          data,
	})
	if err != nil {
		logger.WarnContext(ctx, "could not deliver notification",
			"event_type", string(eventType), "error", err.Error())
	}
}
