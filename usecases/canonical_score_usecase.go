package usecases

import (
	"context"
	"strconv"

	"github.com/deltaone/deltaone-backend/models"
	"github.com/deltaone/deltaone-backend/utils"
)

type CanonicalScoreTrackingRepository interface {
	GetRun(ctx context.Context, runId string) (models.Run, error)
	SetTag(ctx context.Context, runId, key, value string) error
}

// CanonicalScoreUsecase advances the canonical score marker directly on a
// run's record. The advance is guarded by the run's consumed-attestation tag
// rather than the registry: a run that already carries the matching
// attestation hash has been advanced, so repeating the call is a no-op.
type CanonicalScoreUsecase struct {
	tracking CanonicalScoreTrackingRepository
}

func NewCanonicalScoreUsecase(tracking CanonicalScoreTrackingRepository) CanonicalScoreUsecase {
	return CanonicalScoreUsecase{tracking: tracking}
}

// Advance sets the canonical score on the run and stamps the attestation hash
// that justified it. Returns false when the run already carries this
// attestation hash and nothing was written.
func (u CanonicalScoreUsecase) Advance(ctx context.Context, runId, attestationHash string, score float64) (bool, error) {
	logger := utils.LoggerFromContext(ctx)

	run, err := u.tracking.GetRun(ctx, runId)
	if err != nil {
		return false, err
	}

	if run.Tags[models.TagMintAttestationHash] == attestationHash {
		logger.InfoContext(ctx, "canonical score already advanced",
			"run_id", runId, "attestation_hash", attestationHash)
		return false, nil
	}

	if err := u.tracking.SetTag(ctx, runId, models.TagCanonicalScore,
		strconv.FormatFloat(score, 'f', -1, 64)); err != nil {
		return false, err
	}
	if err := u.tracking.SetTag(ctx, runId, models.TagMintAttestationHash, attestationHash); err != nil {
		return false, err
	}

	logger.InfoContext(ctx, "canonical score advanced",
		"run_id", runId, "score", score, "attestation_hash", attestationHash)
	return true, nil
}
