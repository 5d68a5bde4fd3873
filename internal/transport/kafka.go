package transport

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/logger"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// MessageWriter is the part of *kafka.Writer used by Kafka.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes payloads to a topic, keyed by API key so one tenant's
// feedback stays ordered within a partition.
type Kafka struct {
	writer MessageWriter
	logger *zap.SugaredLogger
}

// NewKafkaWriter returns a synchronous writer with no default topic; the
// topic is chosen per message.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  1,
		Compression:  kafka.Snappy,
	}
}

// NewKafka wraps a writer.
func NewKafka(w MessageWriter, l *zap.SugaredLogger) *Kafka {
	return &Kafka{writer: w, logger: logger.OrNop(l)}
}

// PostFeedback publishes the payload to the topic named by endpoint.
func (t *Kafka) PostFeedback(ctx context.Context, payload *model.FeedbackPayload, endpoint string) (*Result, error) {
	topic := strings.TrimSpace(endpoint)
	if topic == "" {
		return nil, errors.Mark(errors.New("kafka topic is empty"), ErrTransport)
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(payload.APIKey),
		Value: value,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "client-version", Value: []byte(payload.Version)},
		},
	}
	if err := t.writer.WriteMessages(ctx, msg); err != nil {
		return nil, failed(err, "publish feedback")
	}

	t.logger.Debugw("Feedback published", logger.FieldEndpoint, topic, logger.FieldSize, len(value))
	return &Result{Message: "queued"}, nil
}

// Close closes the underlying writer.
func (t *Kafka) Close() error {
	return t.writer.Close()
}
