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

func testEvent() models.DeltaOneEvent {
	return models.DeltaOneEvent{
		Id:          "evt-1",
		EventType:   models.EventModelImprovementAchieved,
		RunId:       "run-42",
		ModelId:     "model-1",
		DatasetHash: "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		MetricName:  "accuracy",
	}
}

func TestNotificationRepository_SendEvent(t *testing.T) {
	defer gock.Off()

	gock.New("https://hooks.example.com").
		Post("/deltaone").
		MatchHeader("X-DeltaOne-Event", string(models.EventModelImprovementAchieved)).
		Reply(http.StatusAccepted)

	repo := NewNotificationRepository(infra.NotificationConfig{WebhookUrl: "https://hooks.example.com/deltaone"})

	err := repo.SendEvent(context.Background(), testEvent())
	require.NoError(t, err)
	assert.False(t, gock.HasUnmatchedRequest())
}

func TestNotificationRepository_DeliveryFailureIsReported(t *testing.T) {
	defer gock.Off()

	gock.New("https://hooks.example.com").
		Post("/deltaone").
		Reply(http.StatusBadGateway)

	repo := NewNotificationRepository(infra.NotificationConfig{WebhookUrl: "https://hooks.example.com/deltaone"})

	err := repo.SendEvent(context.Background(), testEvent())
	assert.Error(t, err)
}

func TestNotificationRepository_NoWebhookConfigured(t *testing.T) {
	repo := NewNotificationRepository(infra.NotificationConfig{})

	err := repo.SendEvent(context.Background(), testEvent())
	assert.NoError(t, err)
}
