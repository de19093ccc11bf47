package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"troop-cookies/internal/config"
	"troop-cookies/internal/logger"
	"troop-cookies/internal/models"
)

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes domain events after their writes commit. One writer
// serves every topic; the topic is set per message.
type Producer struct {
	Writer MessageWriter
	Topics config.TopicConfig
	Logger *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

func (p *Producer) publish(ctx context.Context, topic, key string, event interface{}) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	p.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("key=%s %s", key, string(msgBytes)))

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

// PublishBoothVerified streams the booth reconciliation result, keyed by booth
func (p *Producer) PublishBoothVerified(ctx context.Context, event models.BoothVerifiedEvent) error {
	return p.publish(ctx, p.Topics.BoothVerified, event.BoothID, event)
}

// PublishMoneyReceived streams a payment, keyed by order
func (p *Producer) PublishMoneyReceived(ctx context.Context, event models.MoneyReceivedEvent) error {
	return p.publish(ctx, p.Topics.MoneyReceived, event.OrderID, event)
}

// PublishInventoryMoved streams a stock movement, keyed by cookie code
func (p *Producer) PublishInventoryMoved(ctx context.Context, event models.InventoryMovedEvent) error {
	return p.publish(ctx, p.Topics.InventoryMoved, event.CookieCode, event)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
