package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/loft_booking_bot/internal/conversation"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockEngine struct {
	handleFn func(ctx context.Context, in conversation.Inbound) (conversation.Reply, error)
	calls    []conversation.Inbound
}

func (m *mockEngine) Handle(ctx context.Context, in conversation.Inbound) (conversation.Reply, error) {
	m.calls = append(m.calls, in)
	return m.handleFn(ctx, in)
}

type mockSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (m *mockSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	m.sent = append(m.sent, params)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Message{}, nil
}

func textUpdate(chatID, fromID int64, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			Chat: models.Chat{ID: chatID},
			From: &models.User{ID: fromID},
			Text: text,
		},
	}
}

func echoEngine(reply conversation.Reply) *mockEngine {
	return &mockEngine{handleFn: func(context.Context, conversation.Inbound) (conversation.Reply, error) {
		return reply, nil
	}}
}

func TestProcess_MapsMessageToInbound(t *testing.T) {
	engine := echoEngine(conversation.Reply{Text: "ok"})
	sender := &mockSender{}
	ctrl := NewBotController(engine, 42, zap.NewNop())

	err := ctrl.Process(context.Background(), sender, textUpdate(100, 7, "/book"))
	require.NoError(t, err)

	require.Len(t, engine.calls, 1)
	assert.Equal(t, conversation.Inbound{SessionID: "100", UserID: "7", Text: "/book"}, engine.calls[0])

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(100), sender.sent[0].ChatID)
	assert.Equal(t, "ok", sender.sent[0].Text)
}

func TestProcess_AdminFlag(t *testing.T) {
	engine := echoEngine(conversation.Reply{Text: "ok"})
	ctrl := NewBotController(engine, 42, zap.NewNop())

	require.NoError(t, ctrl.Process(context.Background(), &mockSender{}, textUpdate(42, 42, "/admin")))
	require.Len(t, engine.calls, 1)
	assert.True(t, engine.calls[0].IsAdmin)
}

func TestProcess_NoAdminConfigured(t *testing.T) {
	engine := echoEngine(conversation.Reply{Text: "ok"})
	ctrl := NewBotController(engine, 0, zap.NewNop())

	require.NoError(t, ctrl.Process(context.Background(), &mockSender{}, textUpdate(0, 0, "/admin")))
	assert.False(t, engine.calls[0].IsAdmin)
}

func TestProcess_ContactBecomesPhoneText(t *testing.T) {
	engine := echoEngine(conversation.Reply{Text: "ok"})
	ctrl := NewBotController(engine, 0, zap.NewNop())

	update := textUpdate(5, 5, "")
	update.Message.Contact = &models.Contact{PhoneNumber: "+79001234567"}

	require.NoError(t, ctrl.Process(context.Background(), &mockSender{}, update))
	require.Len(t, engine.calls, 1)
	assert.Equal(t, "+79001234567", engine.calls[0].Text)
}

func TestProcess_IgnoresNonText(t *testing.T) {
	engine := echoEngine(conversation.Reply{Text: "ok"})
	sender := &mockSender{}
	ctrl := NewBotController(engine, 0, zap.NewNop())

	require.NoError(t, ctrl.Process(context.Background(), sender, &models.Update{ID: 1}))
	require.NoError(t, ctrl.Process(context.Background(), sender, textUpdate(1, 1, "")))

	assert.Empty(t, engine.calls)
	assert.Empty(t, sender.sent)
}

func TestProcess_EngineErrorStillReplies(t *testing.T) {
	boom := errors.New("boom")
	engine := &mockEngine{handleFn: func(context.Context, conversation.Inbound) (conversation.Reply, error) {
		return conversation.Reply{Text: "Что-то пошло не так"}, boom
	}}
	sender := &mockSender{}
	ctrl := NewBotController(engine, 0, zap.NewNop())

	err := ctrl.Process(context.Background(), sender, textUpdate(1, 1, "x"))
	require.ErrorIs(t, err, boom)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Что-то пошло не так", sender.sent[0].Text)
}

func TestProcess_SendError(t *testing.T) {
	sendErr := errors.New("network down")
	ctrl := NewBotController(echoEngine(conversation.Reply{Text: "ok"}), 0, zap.NewNop())

	err := ctrl.Process(context.Background(), &mockSender{err: sendErr}, textUpdate(1, 1, "x"))
	assert.ErrorIs(t, err, sendErr)
}

func TestBuildKeyboard(t *testing.T) {
	t.Run("no options removes keyboard", func(t *testing.T) {
		markup := buildKeyboard(conversation.Reply{Text: "x"})
		remove, ok := markup.(*models.ReplyKeyboardRemove)
		require.True(t, ok)
		assert.True(t, remove.RemoveKeyboard)
	})

	t.Run("short options three per row", func(t *testing.T) {
		markup := buildKeyboard(conversation.Reply{Options: []string{"09:00", "10:00", "11:00", "12:00"}})
		kb, ok := markup.(*models.ReplyKeyboardMarkup)
		require.True(t, ok)
		assert.True(t, kb.ResizeKeyboard)
		require.Len(t, kb.Keyboard, 2)
		assert.Len(t, kb.Keyboard[0], 3)
		assert.Len(t, kb.Keyboard[1], 1)
		assert.Equal(t, "12:00", kb.Keyboard[1][0].Text)
	})

	t.Run("long options one per row", func(t *testing.T) {
		markup := buildKeyboard(conversation.Reply{Options: []string{"Классический массаж спины", "↩️ Отмена"}})
		kb := markup.(*models.ReplyKeyboardMarkup)
		require.Len(t, kb.Keyboard, 2)
		assert.Len(t, kb.Keyboard[0], 1)
	})

	t.Run("phone request adds contact button first", func(t *testing.T) {
		markup := buildKeyboard(conversation.Reply{RequestPhone: true, Options: []string{"↩️ Отмена"}})
		kb := markup.(*models.ReplyKeyboardMarkup)
		require.Len(t, kb.Keyboard, 2)
		assert.True(t, kb.Keyboard[0][0].RequestContact)
		assert.Equal(t, btnSharePhone, kb.Keyboard[0][0].Text)
		assert.False(t, kb.Keyboard[1][0].RequestContact)
	})
}
