// Package kafka publishes progress telemetry events. Publishing is
// fire-and-forget: a broker outage costs analytics data, never gameplay.
package kafka

import (
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/player-progress/internal/config"
	"github.com/player-progress/internal/domain"
)

// Producer publishes progress events to the telemetry topic.
type Producer struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *slog.Logger
	doneCh   chan struct{}
}

// NewProducer creates a new telemetry producer.
func NewProducer(cfg *config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Flush.Frequency = cfg.FlushFreq
	saramaConfig.Producer.Flush.Messages = cfg.FlushMsgs
	saramaConfig.Producer.Return.Successes = false
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Net.DialTimeout = cfg.DialTimeout

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, err
	}

	p := &Producer{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger,
		doneCh:   make(chan struct{}),
	}

	go p.drainErrors()

	return p, nil
}

// Publish enqueues one event. A full producer buffer drops the event
// rather than blocking the caller.
func (p *Producer) Publish(event domain.ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to encode progress event", "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(data),
	}

	select {
	case p.producer.Input() <- msg:
	default:
		p.logger.Warn("telemetry buffer full, dropping event", "event_type", event.EventType)
	}
}

// Close flushes pending messages and shuts the producer down.
func (p *Producer) Close() error {
	err := p.producer.Close()
	<-p.doneCh
	return err
}

func (p *Producer) drainErrors() {
	defer close(p.doneCh)
	for err := range p.producer.Errors() {
		p.logger.Warn("telemetry publish failed", "error", err.Err)
	}
}
