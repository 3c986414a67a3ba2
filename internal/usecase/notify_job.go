package usecase

import (
	"context"
	"fmt"

	"MarketSentry/internal/domain/models"
	xhttp "MarketSentry/pkg/http"
	applogger "MarketSentry/pkg/logger"
	"MarketSentry/pkg/queue"
)

// NotifyJobType is the queue message type for intervention fan-out.
const NotifyJobType = "intervention.notify"

// NotifyJob delivers gated interventions to the operator webhook. Delivery
// runs on queue workers so a slow or down webhook never blocks the
// detection loop; the queue retries per its RetryLimit.
type NotifyJob struct {
	webhookURL string
	client     *xhttp.Client
	logger     *applogger.Logger
}

func NewNotifyJob(webhookURL string, client *xhttp.Client, lgr *applogger.Logger) *NotifyJob {
	return &NotifyJob{
		webhookURL: webhookURL,
		client:     client,
		logger:     lgr,
	}
}

var _ queue.Job = (*NotifyJob)(nil)

func (j *NotifyJob) Name() string { return "intervention_notify" }
func (j *NotifyJob) Type() string { return NotifyJobType }

// Handle posts the intervention to the configured webhook. Without a
// webhook it only logs, so the queue path stays exercisable in dev.
func (j *NotifyJob) Handle(ctx context.Context, payload interface{}) error {
	iv, err := queue.ParsePayload[models.Intervention](payload)
	if err != nil {
		return fmt.Errorf("parse intervention payload: %w", err)
	}

	if j.webhookURL == "" {
		j.logger.Info("intervention notification (no webhook configured)",
			applogger.String("asset", iv.Asset),
			applogger.String("action", iv.Action))
		return nil
	}

	if err := j.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     j.webhookURL,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    iv,
	}, nil); err != nil {
		return fmt.Errorf("webhook delivery: %w", err)
	}

	j.logger.Info("intervention notified",
		applogger.String("asset", iv.Asset),
		applogger.String("action", iv.Action))
	return nil
}
