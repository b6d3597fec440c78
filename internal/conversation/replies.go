package conversation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/loft_booking_bot/internal/formatting"
	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/service"
)

// Кнопки и команды
const (
	CmdStart      = "/start"
	CmdBook       = "/book"
	CmdMyBookings = "/mybookings"
	CmdCancel     = "/cancel"
	CmdAdmin      = "/admin"

	BtnBook       = "📅 Записаться"
	BtnMyBookings = "📋 Мои записи"
	BtnRestart    = "↩️ Отмена"

	BtnAdminDayOffAdd    = "Закрыть день"
	BtnAdminDayOffRemove = "Открыть день"
	BtnAdminWindows      = "Часы на дату"
	BtnAdminCancel       = "Отменить запись"
	BtnAdminList         = "Все записи"
	BtnAdminPurge        = "Очистить прошедшие"

	// значения для "Часы на дату"
	WindowsClosed = "выходной"
	WindowsReset  = "сброс"
)

const (
	textWelcome = "👋 Здравствуйте! Это бот записи на массаж в студию «Лофт».\n\n" +
		"Нажмите «" + BtnBook + "», чтобы выбрать услугу и время."
	textIdleHint          = "Чтобы записаться, нажмите «" + BtnBook + "» или отправьте /book."
	textChooseService     = "💆 Выберите услугу:"
	textUnknownService    = "❌ Такой услуги нет. Выберите услугу из списка:"
	textChooseDate        = "📅 Выберите дату или введите её в формате ДД.ММ.ГГГГ:"
	textNoOpenDates       = "😔 В ближайшие дни нет рабочих дат. Попробуйте ввести другую дату в формате ДД.ММ.ГГГГ или вернитесь позже."
	textInvalidDate       = "❌ Не удалось распознать дату. Введите её в формате ДД.ММ.ГГГГ:"
	textOutOfHorizon      = "❌ На эту дату запись недоступна. Выберите дату из списка:"
	textDateFull          = "😔 На %s свободного времени нет. Выберите другую дату:"
	textChooseTime        = "🕐 Свободное время на %s:"
	textInvalidTime       = "❌ Выберите время из списка:"
	textTimeTaken         = "😔 Время %s уже занято. Выберите другое:"
	textEnterName         = "👤 Как к вам обращаться?"
	textEmptyName         = "❌ Имя не может быть пустым. Как к вам обращаться?"
	textEnterPhone        = "📞 Отправьте номер телефона или нажмите кнопку ниже:"
	textInvalidPhone      = "❌ Не удалось распознать номер. Введите телефон, например +7 916 123-45-67:"
	textRaceLost          = "😔 Пока вы заполняли данные, время %s заняли. Выберите другое:"
	textRaceLostNoSlots   = "😔 Пока вы заполняли данные, время %s заняли, а других свободных слотов на эту дату не осталось. Выберите другую дату:"
	textRestarted         = "Запись отменена. " + textIdleHint
	textNoBookings        = "У вас нет активных записей."
	textFailure           = "❌ Произошла ошибка. Попробуйте начать заново: /book"
	textUnauthorized      = "⛔ Эта команда доступна только администратору."
	textAdminMenu         = "🛠 Администрирование. Выберите действие:"
	textAdminEnterDate    = "Введите дату в формате ДД.ММ.ГГГГ:"
	textAdminDayOffAdded  = "✅ %s закрыт для записи."
	textAdminDayOffOpened = "✅ %s снова открыт."
	textAdminDayOffAbsent = "ℹ️ %s не был закрыт."
	textAdminWindowsValue = "Введите часы работы на %s, например 11:00-14:00,17:00-20:00.\n" +
		"«" + WindowsClosed + "» закрывает день, «" + WindowsReset + "» возвращает обычное расписание."
	textAdminInvalidWindows = "❌ Неверный формат часов. Пример: 11:00-14:00,17:00-20:00"
	textAdminWindowsSet     = "✅ Часы на %s: %s"
	textAdminWindowsClosed  = "✅ %s закрыт (часы на дату)."
	textAdminWindowsReset   = "✅ Для %s снова действует обычное расписание."
	textAdminWindowsNoop    = "ℹ️ Для %s особых часов не было."
	textAdminEnterID        = "Введите номер записи (ID):"
	textAdminInvalidID      = "❌ Номер записи должен быть числом. Введите ID:"
	textAdminCancelled      = "✅ Запись #%d отменена."
	textAdminNotFound       = "❌ Активная запись #%d не найдена."
	textAdminNoBookings     = "Активных записей нет."
	textAdminPurged         = "🧹 Отменено прошедших записей: %d"
)

func mainMenu() []string {
	return []string{BtnBook, BtnMyBookings}
}

func adminMenu() []string {
	return []string{
		BtnAdminDayOffAdd, BtnAdminDayOffRemove, BtnAdminWindows,
		BtnAdminCancel, BtnAdminList, BtnAdminPurge,
		BtnRestart,
	}
}

func withRestart(options []string) []string {
	return append(options, BtnRestart)
}

func dateOptions(dates []model.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Display()
	}
	return out
}

func timeOptions(slots []model.Clock) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out
}

func formatConfirmation(b *model.Booking) string {
	var sb strings.Builder
	sb.WriteString("✅ Вы записаны!\n\n")
	fmt.Fprintf(&sb, "Услуга: %s\n", b.Service)
	fmt.Fprintf(&sb, "Дата: %s, %s\n", b.Date.Display(), formatting.WeekdayShortName(b.Date.Weekday()))
	fmt.Fprintf(&sb, "Время: %s (%s)\n", b.Time, formatting.FormatDuration(b.DurationMinutes))
	fmt.Fprintf(&sb, "Имя: %s\n", b.CustomerName)
	fmt.Fprintf(&sb, "Телефон: %s\n\n", b.CustomerPhone)
	fmt.Fprintf(&sb, "Код для отмены записи: %s", b.CancelToken)
	return sb.String()
}

func formatBookings(title string, bookings []*model.Booking, withContacts bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d %s", title, len(bookings), formatting.PluralizeBookings(len(bookings)))
	for _, b := range bookings {
		fmt.Fprintf(&sb, "\n\n#%d %s %s %s\n%s", b.ID, formatting.WeekdayShortName(b.Date.Weekday()),
			b.Date.Display(), b.Time, b.Service)
		if withContacts {
			fmt.Fprintf(&sb, "\n%s, %s", b.CustomerName, b.CustomerPhone)
		}
	}
	return sb.String()
}

// errorReply пользовательское сообщение для ошибки сервиса
func errorReply(err error) string {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return textUnauthorized
	case errors.Is(err, service.ErrValidation):
		return "❌ Проверьте введённые данные и попробуйте снова"
	case errors.Is(err, service.ErrSlotUnavailable):
		return "😔 Это время уже занято"
	case errors.Is(err, service.ErrNotFound):
		return "❌ Запись не найдена"
	default:
		return textFailure
	}
}
