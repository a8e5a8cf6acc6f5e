package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/deltaone/deltaone-backend/models"
)

type NotificationDispatcher struct {
	mock.Mock
}

func (m *NotificationDispatcher) SendEvent(ctx context.Context, event models.DeltaOneEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
