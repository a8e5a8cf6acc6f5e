package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/deltaone/deltaone-backend/infra"
	"github.com/deltaone/deltaone-backend/models"
	"github.com/deltaone/deltaone-backend/utils"
)

// MintRepository dispatches reward-issuance calls to the external mint
// endpoint. One HTTP POST per attempt, bounded attempt budget, structured
// audit events for every request, retry and terminal outcome. Transport
// failures end as a MintResult with status "failed", never as a Go error.
type MintRepository struct {
	config infra.MintConfig
	client *http.Client
}

func NewMintRepository(config infra.MintConfig) (MintRepository, error) {
	if config.MaxAttempts < 1 {
		return MintRepository{}, errors.Wrapf(models.BadParameterError,
			"mint attempt budget must be at least 1, got %d", config.MaxAttempts)
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = 10 * time.Second
	}
	return MintRepository{
		config: config,
		client: &http.Client{},
	}, nil
}

type httpMintRequest struct {
	ModelId        string            `json:"model_id"`
	TokenId        string            `json:"token_id"`
	DeltaValue     float64           `json:"delta_value"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	AuditRef       string            `json:"audit_ref"`
	Timestamp      time.Time         `json:"timestamp"`
}

func (repo MintRepository) Mint(ctx context.Context, request models.MintRequest) (models.MintResult, error) {
	logger := utils.LoggerFromContext(ctx)

	if err := request.Validate(); err != nil {
		return models.MintResult{}, err
	}

	auditRef := uuid.NewString()
	now := time.Now().UTC()

	logger.InfoContext(ctx, "token_mint_request",
		"model_id", request.ModelId,
		"token_id", request.TokenId,
		"delta_value", request.DeltaValue,
		"idempotency_key", request.IdempotencyKey,
		"audit_ref", auditRef,
	)

	if repo.config.DryRun {
		return repo.terminal(ctx, request, models.MintResult{
			Status:    models.MintStatusDryRun,
			AuditRef:  auditRef,
			Timestamp: now,
		}), nil
	}
	if repo.config.Endpoint == "" {
		return repo.terminal(ctx, request, models.MintResult{
			Status:    models.MintStatusSkipped,
			AuditRef:  auditRef,
			Timestamp: now,
		}), nil
	}

	payload, err := json.Marshal(httpMintRequest{
		ModelId:        request.ModelId,
		TokenId:        request.TokenId,
		DeltaValue:     request.DeltaValue,
		IdempotencyKey: request.IdempotencyKey,
		Metadata:       request.Metadata,
		AuditRef:       auditRef,
		Timestamp:      now,
	})
	if err != nil {
		return models.MintResult{}, errors.Wrap(err, "could not serialize mint request")
	}

	err = retry.Do(
		func() error {
			return repo.attempt(ctx, payload)
		},
		retry.Context(ctx),
		retry.Attempts(uint(repo.config.MaxAttempts)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.WarnContext(ctx, "token_mint_retry",
				"model_id", request.ModelId,
				"audit_ref", auditRef,
				"attempt", attempt+1,
				"error", err.Error(),
			)
		}),
	)

	result := models.MintResult{
		Status:    models.MintStatusSuccess,
		AuditRef:  auditRef,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		result.Status = models.MintStatusFailed
		result.Error = null.StringFrom(err.Error())
	}

	return repo.terminal(ctx, request, result), nil
}

func (repo MintRepository) attempt(ctx context.Context, payload []byte) error {
	attemptCtx, cancel := context.WithTimeout(ctx, repo.config.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, repo.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if repo.config.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+repo.config.ApiKey)
	}

	resp, err := repo.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "mint endpoint request error")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf("mint endpoint returned %s: %s", resp.Status, string(body))
	}
	return nil
}

func (repo MintRepository) terminal(ctx context.Context, request models.MintRequest, result models.MintResult) models.MintResult {
	logger := utils.LoggerFromContext(ctx)

	logger.InfoContext(ctx, "token_mint_outcome",
		"model_id", request.ModelId,
		"token_id", request.TokenId,
		"status", string(result.Status),
		"audit_ref", result.AuditRef,
		"error", result.Error.ValueOrZero(),
	)
	return result
}
