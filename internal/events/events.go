// Package events publishes booking lifecycle events to Kafka. Publishing is
// best-effort: the reservation outcome never depends on the broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Zeeshan-Hamid/Travel-Ease/internal/models"
)

// EventType identifies a booking lifecycle transition.
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingExpired   EventType = "booking.expired"
)

// BookingEvent is the wire form of a booking lifecycle event.
type BookingEvent struct {
	Type       EventType            `json:"type"`
	BookingID  string               `json:"bookingId"`
	UserID     string               `json:"userId"`
	ItemID     string               `json:"itemId"`
	ItemType   models.ItemType      `json:"itemType"`
	Quantity   int                  `json:"quantity"`
	Status     models.BookingStatus `json:"status"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// NewBookingEvent builds an event from a booking.
func NewBookingEvent(eventType EventType, booking *models.Booking) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID.String(),
		UserID:     booking.UserID,
		ItemID:     booking.ItemID.String(),
		ItemType:   booking.ItemType,
		Quantity:   booking.Quantity,
		Status:     booking.Status,
		OccurredAt: time.Now(),
	}
}

// Publisher emits booking events.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

// KafkaPublisher writes booking events to a Kafka topic, keyed by item id so
// events for one item stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ItemID),
		Value: payload,
	})
	if err != nil {
		p.logger.Warn("failed to publish booking event",
			zap.String("type", string(event.Type)),
			zap.String("bookingId", event.BookingID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events. Used in tests and kafkaless deployments.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event BookingEvent) error { return nil }
func (NopPublisher) Close() error                                          { return nil }
