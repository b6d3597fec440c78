package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/Freeeeeet/loft_booking_bot/internal/conversation"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const (
	btnSharePhone = "📱 Отправить номер"

	// длинные варианты (названия услуг) по одному в ряд
	shortOptionRunes = 12
	optionsPerRow    = 3
)

// Engine диалоговый автомат
type Engine interface {
	Handle(ctx context.Context, in conversation.Inbound) (conversation.Reply, error)
}

// Sender часть *bot.Bot, нужная для ответа
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// BotController переводит обновления Telegram во входящие сообщения автомата и обратно
type BotController struct {
	engine      Engine
	adminChatID int64
	logger      *zap.Logger
}

func NewBotController(engine Engine, adminChatID int64, logger *zap.Logger) *BotController {
	return &BotController{
		engine:      engine,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

// HandleUpdate обработчик по умолчанию для long polling: ошибки только логируются
func (c *BotController) HandleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if err := c.Process(ctx, b, update); err != nil {
		c.logger.Error("Failed to process update",
			zap.Int64("update_id", update.ID),
			zap.Error(err))
	}
}

// Process обрабатывает одно обновление и отправляет ответ.
// Возвращает ошибку автомата или отправки; решение об ответе Telegram принимает вызывающий.
func (c *BotController) Process(ctx context.Context, sender Sender, update *models.Update) error {
	msg := update.Message
	if msg == nil {
		return nil
	}

	text := msg.Text
	if msg.Contact != nil {
		text = msg.Contact.PhoneNumber
	}
	if text == "" {
		return nil
	}

	in := conversation.Inbound{
		SessionID: strconv.FormatInt(msg.Chat.ID, 10),
		Text:      text,
	}
	if msg.From != nil {
		in.UserID = strconv.FormatInt(msg.From.ID, 10)
		in.IsAdmin = c.adminChatID != 0 && msg.From.ID == c.adminChatID
	}

	reply, handleErr := c.engine.Handle(ctx, in)
	if handleErr != nil {
		handleErr = fmt.Errorf("handle message in chat %d: %w", msg.Chat.ID, handleErr)
	}

	_, sendErr := sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        reply.Text,
		ReplyMarkup: buildKeyboard(reply),
	})
	if sendErr != nil {
		sendErr = fmt.Errorf("send reply to chat %d: %w", msg.Chat.ID, sendErr)
	}

	return errors.Join(handleErr, sendErr)
}

// buildKeyboard варианты ответа как reply-клавиатура; без вариантов клавиатура убирается
func buildKeyboard(reply conversation.Reply) models.ReplyMarkup {
	if len(reply.Options) == 0 && !reply.RequestPhone {
		return removeKeyboard()
	}

	kb := newKeyboardBuilder()
	if reply.RequestPhone {
		kb.Row(contactButton(btnSharePhone))
	}

	perRow := optionsPerRow
	for _, opt := range reply.Options {
		if utf8.RuneCountInString(opt) > shortOptionRunes {
			perRow = 1
			break
		}
	}

	return kb.Grid(reply.Options, perRow).Build()
}

// SetCommands устанавливает список команд в меню бота
func (c *BotController) SetCommands(ctx context.Context, b *bot.Bot) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать"},
		{Command: "book", Description: "📅 Записаться на массаж"},
		{Command: "mybookings", Description: "📋 Мои записи"},
		{Command: "cancel", Description: "↩️ Отменить текущее действие"},
	}

	_, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}
