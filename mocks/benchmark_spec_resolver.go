package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/deltaone/deltaone-backend/models"
)

type BenchmarkSpecResolver struct {
	mock.Mock
}

func (m *BenchmarkSpecResolver) GetActiveSpecForModel(ctx context.Context, modelId string) (*models.BenchmarkSpec, error) {
	args := m.Called(ctx, modelId)
	spec, _ := args.Get(0).(*models.BenchmarkSpec)
	return spec, args.Error(1)
}
