package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/deltaone/deltaone-backend/infra"
	"github.com/deltaone/deltaone-backend/models"
)

// NotificationRepository delivers deltaone events to the configured webhook.
// Delivery is fire-and-forget at the orchestrator level: errors returned here
// are logged by the caller and never fail the orchestration.
type NotificationRepository struct {
	config infra.NotificationConfig
	client *http.Client
}

func NewNotificationRepository(config infra.NotificationConfig) NotificationRepository {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return NotificationRepository{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

func (repo NotificationRepository) SendEvent(ctx context.Context, event models.DeltaOneEvent) error {
	if repo.config.WebhookUrl == "" {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "could not serialize event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, repo.config.WebhookUrl, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-DeltaOne-Event", string(event.EventType))

	resp, err := repo.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "could not deliver %s event", event.EventType)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Newf("webhook returned %s for %s event", resp.Status, event.EventType)
	}
	return nil
}
