// Package events publishes JSON domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/JaimeStill/warden/pkg/lifecycle"
)

// ErrDisabled is returned by New when no brokers are configured.
var ErrDisabled = errors.New("events disabled")

// Writer is the subset of *kafka.Writer used by Publisher.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher serializes events and writes them keyed for partition affinity.
type Publisher struct {
	writer Writer
	topic  string
	logger *slog.Logger
}

// New creates a Publisher backed by a kafka.Writer.
func New(cfg *Config, logger *slog.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: cfg.BatchTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
	}

	return NewWithWriter(writer, cfg.Topic, logger), nil
}

// NewWithWriter creates a Publisher around an existing Writer.
func NewWithWriter(writer Writer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer: writer,
		topic:  topic,
		logger: logger.With("system", "events", "topic", topic),
	}
}

// Start registers a shutdown hook that flushes and closes the writer.
func (p *Publisher) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown("events", func(context.Context) error {
		if err := p.writer.Close(); err != nil {
			return err
		}
		p.logger.Info("writer closed")
		return nil
	})
	return nil
}

// Publish encodes payload as JSON and writes it under key.
func (p *Publisher) Publish(ctx context.Context, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  time.Now().UTC(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}

	p.logger.Debug("event published", "key", key)
	return nil
}
