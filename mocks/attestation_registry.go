package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/deltaone/deltaone-backend/models"
)

type AttestationRegistry struct {
	mock.Mock
}

func (m *AttestationRegistry) IsConsumed(ctx context.Context, hash string) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

func (m *AttestationRegistry) Consume(ctx context.Context, hash string, record models.ConsumedAttestationRecord) error {
	args := m.Called(ctx, hash, record)
	return args.Error(0)
}
