package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/deltaone/deltaone-backend/infra"
	"github.com/deltaone/deltaone-backend/models"
)

// BenchmarkSpecRepository resolves the currently active benchmark spec for a
// model. A nil spec means no spec is active, in which case freshness checks
// are skipped.
type BenchmarkSpecRepository struct {
	config infra.SpecResolverConfig
	client *http.Client
}

func NewBenchmarkSpecRepository(config infra.SpecResolverConfig) BenchmarkSpecRepository {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return BenchmarkSpecRepository{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

func (repo BenchmarkSpecRepository) GetActiveSpecForModel(ctx context.Context, modelId string) (*models.BenchmarkSpec, error) {
	u := fmt.Sprintf("%s/api/v1/specs/active?model_id=%s", repo.config.BaseUrl, url.QueryEscape(modelId))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := repo.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "could not resolve active spec for model %s", modelId)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("spec resolver returned %s for model %s", resp.Status, modelId)
	}

	var spec models.BenchmarkSpec
	if err := json.NewDecoder(resp.Body).Decode(&spec); err != nil {
		return nil, errors.Wrapf(err, "could not decode active spec for model %s", modelId)
	}
	return &spec, nil
}
