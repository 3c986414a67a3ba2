package repository

import (
	"context"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	pkgkafka "MarketSentry/pkg/kafka"
)

// KafkaAlertPublisher delivers interventions to the alerts topic, keyed by
// asset so downstream consumers see per-asset ordering.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) domrepo.AlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) PublishIntervention(ctx context.Context, iv *models.Intervention) error {
	return p.producer.Publish(ctx, p.topic, []byte(iv.Asset), iv)
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
