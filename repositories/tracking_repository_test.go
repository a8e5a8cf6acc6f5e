package repositories

import (
	"context"
	"net/http"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltaone/deltaone-backend/infra"
	"github.com/deltaone/deltaone-backend/models"
)

func TestTrackingRepository_GetRun(t *testing.T) {
	defer gock.Off()

	gock.New("https://tracking.example.com").
		Get("/api/2.0/mlflow/runs/get").
		MatchParam("run_id", "run-42").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"run": map[string]any{
				"info": map[string]any{
					"run_id":        "run-42",
					"experiment_id": "exp-1",
					"start_time":    1767225600000,
				},
				"data": map[string]any{
					"tags": []map[string]any{
						{"key": "deltaone.model_id", "value": "model-1"},
					},
					"params": []map[string]any{
						{"key": "deltaone.sample_size", "value": "12000"},
					},
					"metrics": []map[string]any{
						{"key": "accuracy", "value": 0.89},
					},
				},
			},
		})

	repo := NewTrackingRepository(infra.TrackingConfig{BaseUrl: "https://tracking.example.com"})

	run, err := repo.GetRun(context.Background(), "run-42")
	require.NoError(t, err)
	assert.Equal(t, "run-42", run.RunId)
	assert.Equal(t, "exp-1", run.ExperimentId)
	assert.Equal(t, "model-1", run.Tags["deltaone.model_id"])
	assert.Equal(t, "12000", run.Params["deltaone.sample_size"])
	assert.Equal(t, 0.89, run.Metrics["accuracy"])
}

func TestTrackingRepository_GetRunNotFound(t *testing.T) {
	defer gock.Off()

	gock.New("https://tracking.example.com").
		Get("/api/2.0/mlflow/runs/get").
		Reply(http.StatusNotFound)

	repo := NewTrackingRepository(infra.TrackingConfig{BaseUrl: "https://tracking.example.com"})

	_, err := repo.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, models.NotFoundError)
}

func TestTrackingRepository_SetTag(t *testing.T) {
	defer gock.Off()

	gock.New("https://tracking.example.com").
		Post("/api/2.0/mlflow/runs/set-tag").
		MatchType("json").
		JSON(map[string]string{
			"run_id": "run-42",
			"key":    "deltaone.accepted",
			"value":  "true",
		}).
		Reply(http.StatusOK).
		JSON(map[string]any{})

	repo := NewTrackingRepository(infra.TrackingConfig{BaseUrl: "https://tracking.example.com"})

	err := repo.SetTag(context.Background(), "run-42", "deltaone.accepted", "true")
	require.NoError(t, err)
	assert.False(t, gock.HasUnmatchedRequest())
}

func TestTrackingRepository_SearchRuns(t *testing.T) {
	defer gock.Off()

	gock.New("https://tracking.example.com").
		Post("/api/2.0/mlflow/runs/search").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"runs": []map[string]any{
				{
					"info": map[string]any{"run_id": "run-40", "experiment_id": "exp-1"},
					"data": map[string]any{},
				},
				{
					"info": map[string]any{"run_id": "run-41", "experiment_id": "exp-1"},
					"data": map[string]any{},
				},
			},
		})

	repo := NewTrackingRepository(infra.TrackingConfig{BaseUrl: "https://tracking.example.com"})

	runs, err := repo.SearchRuns(context.Background(), models.RunSearchQuery{
		ExperimentIds: []string{"exp-1"},
		Filter:        "tags.`deltaone.model_id` = 'model-1'",
		MaxResults:    50,
	})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-40", runs[0].RunId)
}

func TestTrackingRepository_BearerToken(t *testing.T) {
	defer gock.Off()

	gock.New("https://tracking.example.com").
		Get("/api/2.0/mlflow/runs/get").
		MatchHeader("Authorization", "Bearer secret-token").
		Reply(http.StatusOK).
		JSON(map[string]any{"run": map[string]any{
			"info": map[string]any{"run_id": "run-42"},
			"data": map[string]any{},
		}})

	repo := NewTrackingRepository(infra.TrackingConfig{
		BaseUrl: "https://tracking.example.com",
		Token:   "secret-token",
	})

	_, err := repo.GetRun(context.Background(), "run-42")
	require.NoError(t, err)
	assert.False(t, gock.HasUnmatchedRequest())
}
