package formatting

import (
	"fmt"
	"time"
)

// Plural выбирает форму слова для числа: one (1, 21), few (2-4, 22-24), many (остальные)
func Plural(count int, one, few, many string) string {
	if count < 0 {
		count = -count
	}
	if count%10 == 1 && count%100 != 11 {
		return one
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return few
	}
	return many
}

// PluralizeBookings возвращает правильное склонение слова "запись"
func PluralizeBookings(count int) string {
	return Plural(count, "запись", "записи", "записей")
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

var weekdayShortNames = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// WeekdayShortName краткое название дня недели на русском
func WeekdayShortName(weekday time.Weekday) string {
	if weekday >= time.Sunday && weekday <= time.Saturday {
		return weekdayShortNames[weekday]
	}
	return "?"
}
