package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	batchTimeout = 10 * time.Millisecond
	batchSize    = 100
)

// MessageProducer is the subset of a Kafka writer used by KafkaPublisher.
type MessageProducer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by order id.
type KafkaPublisher struct {
	producer MessageProducer
	logger   *zap.Logger
}

// NewKafkaPublisher builds a traced Kafka writer for topic on broker.
func NewKafkaPublisher(broker, topic, clientID string, tp trace.TracerProvider, logger *zap.Logger) (*KafkaPublisher, error) {
	baseWriter := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		BatchSize:    batchSize,
	}

	writer, err := otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(topic),
				attribute.String("messaging.kafka.client_id", clientID),
			},
		),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka writer: %w", err)
	}

	return NewPublisher(writer, logger), nil
}

// NewPublisher wraps an existing producer.
func NewPublisher(producer MessageProducer, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, logger: logger}
}

func (p *KafkaPublisher) PublishItemAdded(ctx context.Context, event ItemAdded) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal item added event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.OrderID), 10)),
		Value: payload,
	}
	if err := p.producer.WriteMessage(ctx, msg); err != nil {
		return fmt.Errorf("publish item added event: %w", err)
	}

	p.logger.Debug("item added event published",
		zap.Uint("order_id", event.OrderID),
		zap.Uint("item_id", event.ItemID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
