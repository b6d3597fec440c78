// Package schedule вычисляет рабочие окна и свободные слоты.
package schedule

import (
	"github.com/Freeeeeet/loft_booking_bot/internal/model"
)

// Config недельное расписание и исключения по датам.
// Исключения всегда важнее правила дня недели.
type Config struct {
	Weekly        model.WeeklySchedule
	DaysOff       map[model.Date]struct{}
	CustomWindows map[model.Date][]model.Window // пустой список означает закрытый день
}

// NewConfig создаёт конфигурацию без исключений
func NewConfig(weekly model.WeeklySchedule) Config {
	return Config{
		Weekly:        weekly.Clone(),
		DaysOff:       make(map[model.Date]struct{}),
		CustomWindows: make(map[model.Date][]model.Window),
	}
}

// Resolve возвращает рабочие окна на дату (возможно пустые)
func (c Config) Resolve(date model.Date) []model.Window {
	if _, off := c.DaysOff[date]; off {
		return nil
	}
	if windows, ok := c.CustomWindows[date]; ok {
		return append([]model.Window(nil), windows...)
	}
	return append([]model.Window(nil), c.Weekly[date.Weekday()]...)
}

// Clone возвращает независимую копию
func (c Config) Clone() Config {
	out := NewConfig(c.Weekly)
	for d := range c.DaysOff {
		out.DaysOff[d] = struct{}{}
	}
	for d, windows := range c.CustomWindows {
		out.CustomWindows[d] = append([]model.Window{}, windows...)
	}
	return out
}
