package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltaone/deltaone-backend/models"
	"github.com/deltaone/deltaone-backend/repositories"
	"github.com/deltaone/deltaone-backend/utils"
)

const canonicalTestHash = "46ea2e9e1b7a4cbd9f1b6a2ef7739be262d81e7e63b2b1b19e1d8b7c2f6a0d11"

func TestCanonicalScoreUsecase_Advance(t *testing.T) {
	ctx := utils.StoreLoggerInContext(context.Background(), utils.NewLogger("test"))
	tracking := repositories.NewTrackingRepositoryFake(models.Run{RunId: "run-42"})

	usecase := NewCanonicalScoreUsecase(tracking)

	advanced, err := usecase.Advance(ctx, "run-42", canonicalTestHash, 87.5)
	require.NoError(t, err)
	assert.True(t, advanced)

	run, err := tracking.GetRun(ctx, "run-42")
	require.NoError(t, err)
	assert.Equal(t, "87.5", run.Tags[models.TagCanonicalScore])
	assert.Equal(t, canonicalTestHash, run.Tags[models.TagMintAttestationHash])
}

func TestCanonicalScoreUsecase_AdvanceIsIdempotent(t *testing.T) {
	ctx := utils.StoreLoggerInContext(context.Background(), utils.NewLogger("test"))
	tracking := repositories.NewTrackingRepositoryFake(models.Run{RunId: "run-42"})

	usecase := NewCanonicalScoreUsecase(tracking)

	advanced, err := usecase.Advance(ctx, "run-42", canonicalTestHash, 87.5)
	require.NoError(t, err)
	require.True(t, advanced)

	// a second advance with the same attestation is a no-op
	advanced, err = usecase.Advance(ctx, "run-42", canonicalTestHash, 90.0)
	require.NoError(t, err)
	assert.False(t, advanced)

	run, err := tracking.GetRun(ctx, "run-42")
	require.NoError(t, err)
	assert.Equal(t, "87.5", run.Tags[models.TagCanonicalScore])
}

func TestCanonicalScoreUsecase_UnknownRun(t *testing.T) {
	ctx := utils.StoreLoggerInContext(context.Background(), utils.NewLogger("test"))
	usecase := NewCanonicalScoreUsecase(repositories.NewTrackingRepositoryFake())

	_, err := usecase.Advance(ctx, "missing", canonicalTestHash, 1.0)
	assert.ErrorIs(t, err, models.NotFoundError)
}
