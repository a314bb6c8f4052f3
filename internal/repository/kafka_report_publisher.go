package repository

import (
	"context"
	"fmt"

	"InOut/internal/domain/models"
	domrepo "InOut/internal/domain/repository"
	pkgkafka "InOut/pkg/kafka"
)

// KafkaReportPublisher implements ReportPublisher on a Kafka topic keyed by
// cycle date.
type KafkaReportPublisher struct {
	pub     BatchPublisher
	topic   string
	metrics domrepo.Metrics
}

func NewKafkaReportPublisher(pub BatchPublisher, topic string, metrics domrepo.Metrics) *KafkaReportPublisher {
	return &KafkaReportPublisher{pub: pub, topic: topic, metrics: metrics}
}

func (p *KafkaReportPublisher) Publish(ctx context.Context, r models.CycleReport) error {
	msg := pkgkafka.Message{Key: []byte(r.Timestamp.UTC().Format("2006-01-02")), Value: r}
	if err := p.pub.PublishBatch(ctx, p.topic, []pkgkafka.Message{msg}); err != nil {
		p.metrics.RecordError("report_publish")
		return fmt.Errorf("publish report: %w", err)
	}
	p.metrics.RecordMessageSent("kafka", p.topic)
	return nil
}

func (p *KafkaReportPublisher) Close() error {
	if p.pub != nil {
		return p.pub.Close()
	}
	return nil
}

var _ domrepo.ReportPublisher = (*KafkaReportPublisher)(nil)
