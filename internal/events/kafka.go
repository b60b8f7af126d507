// Package events publishes import completion events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/JonMunkholm/vetimport/internal/config"
	"github.com/JonMunkholm/vetimport/internal/core"
)

// MessageWriter is the subset of *kafka.Writer the notifier uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier implements core.Notifier. Each event becomes one message
// keyed by table type, so events for a table stay ordered on one partition.
type KafkaNotifier struct {
	writer MessageWriter
	now    func() time.Time
}

// NewKafkaNotifier creates a notifier writing to cfg.Topic on cfg.Brokers.
func NewKafkaNotifier(cfg config.EventsConfig) *KafkaNotifier {
	return NewNotifier(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.Timeout,
	})
}

// NewNotifier wraps an existing writer.
func NewNotifier(w MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w, now: time.Now}
}

// Notify implements core.Notifier.
func (n *KafkaNotifier) Notify(ctx context.Context, ev core.ImportEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.TableType),
		Value: data,
		Time:  n.now(),
		Headers: []kafka.Header{
			{Key: "phase", Value: []byte(ev.Phase)},
		},
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish import event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
