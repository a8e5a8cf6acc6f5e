package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/deltaone/deltaone-backend/usecases"
)

// RunEvaluate is the offline evaluation path: it produces the decision and
// its attestation hash without touching the registry or the mint endpoint.
func RunEvaluate(runId, baselineRunId, nonce string) error {
	ctx := setupContext()

	if runId == "" || baselineRunId == "" {
		return errors.New("both -run and -baseline are required")
	}

	evaluation, _, err := setupEvaluationUsecase()
	if err != nil {
		return err
	}

	decision, err := evaluation.Evaluate(ctx, runId, baselineRunId)
	if err != nil {
		return err
	}

	spec, err := setupSpecResolver().GetActiveSpecForModel(ctx, decision.ModelId)
	if err != nil {
		return err
	}

	hash, err := usecases.AttestationFromDecision(decision, spec, nonce).Hash()
	if err != nil {
		return err
	}

	fmt.Printf("accepted: %t\n", decision.Accepted)
	fmt.Printf("reason: %s\n", decision.Reason)
	fmt.Printf("delta_pp: %.4f\n", decision.DeltaPercentagePoints)
	fmt.Printf("ci95_pp: [%.4f, %.4f]\n", decision.CI95LowPP, decision.CI95HighPP)
	fmt.Printf("attestation_hash: %s\n", hash)
	return nil
}
