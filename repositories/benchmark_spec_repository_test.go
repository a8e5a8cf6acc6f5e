package repositories

import (
	"context"
	"net/http"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deltaone/deltaone-backend/infra"
)

func TestBenchmarkSpecRepository_ActiveSpec(t *testing.T) {
	defer gock.Off()

	gock.New("https://specs.example.com").
		Get("/api/v1/specs/active").
		MatchParam("model_id", "model-1").
		Reply(http.StatusOK).
		JSON(map[string]string{
			"spec_id":         "spec-7",
			"dataset_version": "v2",
		})

	repo := NewBenchmarkSpecRepository(infra.SpecResolverConfig{BaseUrl: "https://specs.example.com"})

	spec, err := repo.GetActiveSpecForModel(context.Background(), "model-1")
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, "spec-7", spec.SpecId)
	assert.Equal(t, "v2", spec.DatasetVersion)
}

func TestBenchmarkSpecRepository_NoActiveSpec(t *testing.T) {
	defer gock.Off()

	gock.New("https://specs.example.com").
		Get("/api/v1/specs/active").
		Reply(http.StatusNotFound)

	repo := NewBenchmarkSpecRepository(infra.SpecResolverConfig{BaseUrl: "https://specs.example.com"})

	spec, err := repo.GetActiveSpecForModel(context.Background(), "model-unknown")
	require.NoError(t, err)
	assert.Nil(t, spec)
}
