package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/deltaone/deltaone-backend/models"
	"github.com/deltaone/deltaone-backend/usecases"
	"github.com/deltaone/deltaone-backend/utils"
)

// RunMint runs the full orchestration: evaluate, then convert an accepted
// decision into at most one mint.
func RunMint(runId, baselineRunId, tokenId, nonce string, dryRun bool) error {
	ctx := setupContext()
	logger := utils.LoggerFromContext(ctx)

	if runId == "" || baselineRunId == "" {
		return errors.New("both -run and -baseline are required")
	}
	if tokenId == "" {
		tokenId = utils.GetEnv("MINT_TOKEN_ID", "")
	}

	evaluation, tracking, err := setupEvaluationUsecase()
	if err != nil {
		return err
	}
	orchestrator, err := setupOrchestrator(tracking, dryRun)
	if err != nil {
		return err
	}

	decision, err := evaluation.Evaluate(ctx, runId, baselineRunId)
	if err != nil {
		return err
	}

	outcome, err := orchestrator.ProcessDecision(ctx, decision, usecases.MintProcessOptions{
		TokenId: tokenId,
		Nonce:   nonce,
	})
	if err != nil {
		if errors.Is(err, models.ErrAttestationAlreadyConsumed) {
			// already handled successfully by a previous call
			logger.InfoContext(ctx, "attestation already consumed, nothing to do",
				"run_id", runId)
			return nil
		}
		return err
	}

	fmt.Printf("outcome: %s\n", outcome.Status)
	if outcome.Status == models.MintOutcomeProcessed {
		fmt.Printf("attestation_hash: %s\n", outcome.AttestationHash)
		fmt.Printf("mint_status: %s\n", outcome.Mint.Status)
		if outcome.Transition != nil {
			fmt.Printf("score: %.4f -> %.4f\n", outcome.Transition.FromScore, outcome.Transition.ToScore)
		}
	}
	return nil
}
