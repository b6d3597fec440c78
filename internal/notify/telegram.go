package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender часть *bot.Bot, нужная для уведомлений
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram присылает администратору сообщение о новой или отменённой записи
type Telegram struct {
	sender MessageSender
	chatID int64
	logger *zap.Logger
}

func NewTelegram(sender MessageSender, adminChatID int64, logger *zap.Logger) *Telegram {
	return &Telegram{
		sender: sender,
		chatID: adminChatID,
		logger: logger,
	}
}

func (t *Telegram) Notify(ctx context.Context, event Event, booking *model.Booking) {
	_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      FormatAdminMessage(event, booking),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		t.logger.Warn("Failed to notify admin",
			zap.String("event", string(event)),
			zap.Int64("booking_id", booking.ID),
			zap.Error(err))
	}
}

// FormatAdminMessage текст уведомления администратору (HTML)
func FormatAdminMessage(event Event, booking *model.Booking) string {
	var sb strings.Builder

	switch event {
	case EventBookingCreated:
		sb.WriteString("🆕 <b>Новая запись</b>\n\n")
	case EventBookingCancelled:
		sb.WriteString("❌ <b>Запись отменена</b>\n\n")
	default:
		fmt.Fprintf(&sb, "ℹ️ <b>%s</b>\n\n", html.EscapeString(string(event)))
	}

	fmt.Fprintf(&sb, "ID: %d\n", booking.ID)
	fmt.Fprintf(&sb, "Услуга: %s\n", html.EscapeString(booking.Service))
	fmt.Fprintf(&sb, "Дата: %s\n", booking.Date.Display())
	fmt.Fprintf(&sb, "Время: %s\n", booking.Time)
	fmt.Fprintf(&sb, "Имя: %s\n", html.EscapeString(booking.CustomerName))
	fmt.Fprintf(&sb, "Телефон: %s", html.EscapeString(booking.CustomerPhone))

	return sb.String()
}
