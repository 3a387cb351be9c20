package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/KulbirJ/compliance-platform-sub000/domain/service"
)

// Config holds Kafka publisher settings.
type Config struct {
	Brokers []string      `mapstructure:"brokers"`
	Topic   string        `mapstructure:"topic"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Event types carried on the posture events topic.
const (
	EventControlStatusChanged   = "control.status.changed"
	EventRegisterEntryCreated   = "register.entry.created"
	EventRegisterEntryCompleted = "register.entry.completed"
)

type envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// KafkaPublisher emits posture events to a single Kafka topic, keyed so
// that events for one assessment stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(cfg Config, logger *zap.Logger) *KafkaPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			WriteTimeout: timeout,
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger,
	}
}

// ControlStatusChanged publishes one control-status change event.
func (p *KafkaPublisher) ControlStatusChanged(ctx context.Context, ev service.ControlStatusEvent) error {
	return p.publish(ctx, ev.AssessmentID.String(), envelope{
		Type:       EventControlStatusChanged,
		OccurredAt: ev.OccurredAt,
		Payload:    ev,
	})
}

// RegisterEntryCreated publishes a register auto-creation event.
func (p *KafkaPublisher) RegisterEntryCreated(ctx context.Context, entryID string) error {
	return p.publish(ctx, entryID, envelope{
		Type:       EventRegisterEntryCreated,
		OccurredAt: time.Now(),
		Payload:    map[string]string{"entry_id": entryID},
	})
}

// RegisterEntryCompleted publishes a register auto-completion event.
func (p *KafkaPublisher) RegisterEntryCompleted(ctx context.Context, entryID string) error {
	return p.publish(ctx, entryID, envelope{
		Type:       EventRegisterEntryCompleted,
		OccurredAt: time.Now(),
		Payload:    map[string]string{"entry_id": entryID},
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, key string, env envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return errors.Wrapf(err, "publish %s", env.Type)
	}

	p.logger.Debug("event published",
		zap.String("type", env.Type),
		zap.String("key", key))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
