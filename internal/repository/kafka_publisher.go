package repository

import (
	"context"
	"fmt"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	pkgkafka "github.com/foreverwb/volatility-analysis/pkg/kafka"
)

// KafkaResultPublisher pushes evaluated results onto the results topic,
// keyed by symbol so one symbol's results stay ordered per partition.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) Publish(ctx context.Context, r *models.AnalysisResult) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(r.Symbol), r); err != nil {
		return fmt.Errorf("publish result %s: %w", r.Symbol, err)
	}
	return nil
}

func (p *KafkaResultPublisher) PublishBatch(ctx context.Context, rs []*models.AnalysisResult) error {
	if len(rs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(rs))
	for _, r := range rs {
		msgs = append(msgs, pkgkafka.Message{Key: []byte(r.Symbol), Value: r})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish batch: %w", err)
	}
	return nil
}

// PublishMessage lets the publisher double as a sink for aggregated error
// logs (logger.Publisher).
func (p *KafkaResultPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaResultPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher satisfies Publisher when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.AnalysisResult) error        { return nil }
func (NoopPublisher) PublishBatch(context.Context, []*models.AnalysisResult) error { return nil }
func (NoopPublisher) Close() error                                                 { return nil }
