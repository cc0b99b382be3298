// Package kafka publishes studai events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/studai/pkg/eventstream"
)

const (
	headerEventType     = "event_type"
	headerSchemaVersion = "schema_version"

	defaultWriteTimeout = 10 * time.Second
)

// MessageWriter is the subset of *kafkago.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config holds Kafka publisher settings.
type Config struct {
	// Brokers is a comma separated list of host:port pairs.
	Brokers string

	Topic string

	// WriteTimeout bounds a single publish (defaults to 10s).
	WriteTimeout time.Duration
}

// Publisher writes JSON encoded events to Kafka.
type Publisher struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher creates a Publisher backed by a kafka-go Writer. The writer
// connects lazily so no broker round-trip happens here.
func NewPublisher(c Config, logger *slog.Logger) (*Publisher, error) {
	brokers := SplitBrokers(c.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        c.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
	}

	p := NewPublisherWithWriter(w, c.Topic, logger)
	if c.WriteTimeout > 0 {
		p.timeout = c.WriteTimeout
	}

	logger.Info("kafka publisher configured",
		"brokers", brokers,
		"topic", c.Topic,
	)

	return p, nil
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w MessageWriter, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer:  w,
		topic:   topic,
		timeout: defaultWriteTimeout,
		logger:  logger,
	}
}

// Publish encodes the event and writes it synchronously.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.Event) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	msg, err := Encode(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing event to kafka topic %s: %w", p.topic, err)
	}

	p.logger.Debug("event published",
		"event_type", event.EventType,
		"event_id", event.EventID,
		"topic", p.topic,
	)

	return nil
}

// Close flushes pending writes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Encode builds the Kafka message for an event.
func Encode(event *eventstream.Event) (kafkago.Message, error) {
	if event == nil {
		return kafkago.Message{}, eventstream.ErrNilEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshaling event: %w", err)
	}

	return kafkago.Message{
		Key:   []byte(event.Key()),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: headerEventType, Value: []byte(event.EventType)},
			{Key: headerSchemaVersion, Value: fmt.Appendf(nil, "%d", event.SchemaVersion)},
		},
	}, nil
}

// SplitBrokers parses a comma separated broker list, dropping blanks.
func SplitBrokers(raw string) []string {
	var out []string
	for b := range strings.SplitSeq(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

var _ eventstream.Publisher = (*Publisher)(nil)
