package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/deltaone/deltaone-backend/models"
)

type ScoreLedger struct {
	mock.Mock
}

func (m *ScoreLedger) RecordTransition(ctx context.Context, transition models.ScoreTransition) (models.ScoreTransition, error) {
	args := m.Called(ctx, transition)
	return args.Get(0).(models.ScoreTransition), args.Error(1)
}
