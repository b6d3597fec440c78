package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
)

// MessageWriter часть *kafka.Writer, нужная для публикации
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// BookingEvent тело сообщения в топике событий
type BookingEvent struct {
	ID         string         `json:"event_id"`
	Type       Event          `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Booking    *model.Booking `json:"booking"`
}

// Kafka публикует события о записях. Ключ сообщения дата записи, чтобы события одного дня шли по порядку
type Kafka struct {
	writer MessageWriter
	logger *zap.Logger
	now    func() time.Time
}

func NewKafka(writer MessageWriter, logger *zap.Logger) *Kafka {
	return &Kafka{
		writer: writer,
		logger: logger,
		now:    time.Now,
	}
}

// NewKafkaWriter создаёт writer для топика событий. Доставка не более
// одного раза: повторных попыток нет, сбой только логируется.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  1,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
	}
}

func (k *Kafka) Notify(ctx context.Context, event Event, booking *model.Booking) {
	payload := BookingEvent{
		ID:         uuid.NewString(),
		Type:       event,
		OccurredAt: k.now().UTC(),
		Booking:    booking,
	}

	value, err := json.Marshal(payload)
	if err != nil {
		k.logger.Warn("Failed to encode booking event", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(booking.Date.String()),
		Value: value,
		Time:  payload.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(payload.ID)},
			{Key: HeaderEventType, Value: []byte(event)},
			{Key: "booking-id", Value: []byte(strconv.FormatInt(booking.ID, 10))},
		},
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.logger.Warn("Failed to publish booking event",
			zap.String("event", string(event)),
			zap.String("event_id", payload.ID),
			zap.Int64("booking_id", booking.ID),
			zap.Error(err))
	}
}
