package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/deltaone/deltaone-backend/models"
)

type MintHook struct {
	mock.Mock
}

func (m *MintHook) Mint(ctx context.Context, request models.MintRequest) (models.MintResult, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(models.MintResult), args.Error(1)
}
