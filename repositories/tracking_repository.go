package repositories

import (
	"bytes"
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

// TrackingRepository talks to the run-tracking store over its REST API. The
// core only depends on three operations: fetching one run, searching runs
// within experiments, and writing one tag.
type TrackingRepository struct {
	config infra.TrackingConfig
	client *http.Client
}

func NewTrackingRepository(config infra.TrackingConfig) TrackingRepository {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return TrackingRepository{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

type httpRunTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type httpRunMetric struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

type httpRun struct {
	Info struct {
		RunId        string `json:"run_id"`
		ExperimentId string `json:"experiment_id"`
		StartTime    int64  `json:"start_time"`
	} `json:"info"`
	Data struct {
		Tags    []httpRunTag    `json:"tags"`
		Params  []httpRunTag    `json:"params"`
		Metrics []httpRunMetric `json:"metrics"`
	} `json:"data"`
}

func adaptRun(in httpRun) models.Run {
	run := models.Run{
		RunId:        in.Info.RunId,
		ExperimentId: in.Info.ExperimentId,
		StartTime:    time.UnixMilli(in.Info.StartTime).UTC(),
		Tags:         make(map[string]string, len(in.Data.Tags)),
		Params:       make(map[string]string, len(in.Data.Params)),
		Metrics:      make(map[string]float64, len(in.Data.Metrics)),
	}
	for _, tag := range in.Data.Tags {
		run.Tags[tag.Key] = tag.Value
	}
	for _, param := range in.Data.Params {
		run.Params[param.Key] = param.Value
	}
	for _, metric := range in.Data.Metrics {
		run.Metrics[metric.Key] = metric.Value
	}
	return run
}

func (repo TrackingRepository) GetRun(ctx context.Context, runId string) (models.Run, error) {
	u := fmt.Sprintf("%s/api/2.0/mlflow/runs/get?run_id=%s", repo.config.BaseUrl, url.QueryEscape(runId))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Run{}, err
	}
	repo.authenticate(req)

	resp, err := repo.client.Do(req)
	if err != nil {
		return models.Run{}, errors.Wrapf(err, "could not fetch run %s", runId)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.Run{}, errors.Wrapf(models.NotFoundError, "run %s", runId)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Run{}, errors.Newf("tracking store returned %s fetching run %s", resp.Status, runId)
	}

	var body struct {
		Run httpRun `json:"run"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Run{}, errors.Wrapf(err, "could not decode run %s", runId)
	}

	return adaptRun(body.Run), nil
}

func (repo TrackingRepository) SearchRuns(ctx context.Context, query models.RunSearchQuery) ([]models.Run, error) {
	payload, err := json.Marshal(map[string]any{
		"experiment_ids": query.ExperimentIds,
		"filter":         query.Filter,
		"max_results":    query.MaxResults,
		"order_by":       query.OrderBy,
	})
	if err != nil {
		return nil, err
	}

	u := repo.config.BaseUrl + "/api/2.0/mlflow/runs/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	repo.authenticate(req)

	resp, err := repo.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "could not search runs")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("tracking store returned %s searching runs", resp.Status)
	}

	var body struct {
		Runs []httpRun `json:"runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "could not decode run search response")
	}

	runs := make([]models.Run, len(body.Runs))
	for i, run := range body.Runs {
		runs[i] = adaptRun(run)
	}
	return runs, nil
}

func (repo TrackingRepository) SetTag(ctx context.Context, runId, key, value string) error {
	payload, err := json.Marshal(map[string]string{
		"run_id": runId,
		"key":    key,
		"value":  value,
	})
	if err != nil {
		return err
	}

	u := repo.config.BaseUrl + "/api/2.0/mlflow/runs/set-tag"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	repo.authenticate(req)

	resp, err := repo.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "could not set tag %s on run %s", key, runId)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("tracking store returned %s setting tag %s on run %s", resp.Status, key, runId)
	}
	return nil
}

func (repo TrackingRepository) authenticate(req *http.Request) {
	if repo.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+repo.config.Token)
	}
}
