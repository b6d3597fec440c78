package controller

import "github.com/go-telegram/bot/models"

// keyboardBuilder упрощает создание reply-клавиатур
type keyboardBuilder struct {
	rows [][]models.KeyboardButton
}

func newKeyboardBuilder() *keyboardBuilder {
	return &keyboardBuilder{
		rows: make([][]models.KeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок
func (b *keyboardBuilder) Row(buttons ...models.KeyboardButton) *keyboardBuilder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Grid раскладывает кнопки с текстом по perRow в ряд
func (b *keyboardBuilder) Grid(texts []string, perRow int) *keyboardBuilder {
	for start := 0; start < len(texts); start += perRow {
		end := min(start+perRow, len(texts))
		row := make([]models.KeyboardButton, 0, end-start)
		for _, text := range texts[start:end] {
			row = append(row, button(text))
		}
		b.Row(row...)
	}
	return b
}

// Build создаёт финальную клавиатуру
func (b *keyboardBuilder) Build() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard:       b.rows,
		ResizeKeyboard: true,
	}
}

func button(text string) models.KeyboardButton {
	return models.KeyboardButton{Text: text}
}

// contactButton кнопка, отправляющая номер телефона пользователя
func contactButton(text string) models.KeyboardButton {
	return models.KeyboardButton{Text: text, RequestContact: true}
}

// removeKeyboard убирает ранее показанную клавиатуру
func removeKeyboard() *models.ReplyKeyboardRemove {
	return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
}
