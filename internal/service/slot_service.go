package service

import (
	"context"
	"slices"
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/schedule"
)

// WindowResolver источник рабочих окон на дату
type WindowResolver interface {
	Resolve(date model.Date) []model.Window
}

// TakenSlotsLister источник занятых времён на дату
type TakenSlotsLister interface {
	TakenSlots(ctx context.Context, date model.Date) (map[model.Clock]struct{}, error)
}

type SlotOptions struct {
	Step        int            // шаг сетки в минутах, 0 = длительность услуги
	HorizonDays int            // на сколько дней вперёд открыта запись
	Location    *time.Location // часовой пояс студии
	Now         func() time.Time
}

// SlotService считает свободные слоты: окна -> сетка -> фильтр занятых
type SlotService struct {
	resolver WindowResolver
	taken    TakenSlotsLister
	opts     SlotOptions
	now      func() time.Time
}

func NewSlotService(resolver WindowResolver, taken TakenSlotsLister, opts SlotOptions) *SlotService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 14
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SlotService{
		resolver: resolver,
		taken:    taken,
		opts:     opts,
		now:      opts.Now,
	}
}

// Today текущая дата в часовом поясе студии
func (s *SlotService) Today() model.Date {
	return model.DateOf(s.now().In(s.opts.Location))
}

// InHorizon дата не в прошлом и не дальше горизонта записи
func (s *SlotService) InHorizon(date model.Date) bool {
	today := s.Today()
	return !date.Before(today) && date.Before(today.AddDays(s.opts.HorizonDays))
}

// OpenDates ближайшие даты в горизонте, у которых есть рабочие окна
func (s *SlotService) OpenDates() []model.Date {
	today := s.Today()
	var dates []model.Date
	for i := 0; i < s.opts.HorizonDays; i++ {
		d := today.AddDays(i)
		if len(s.resolver.Resolve(d)) > 0 {
			dates = append(dates, d)
		}
	}
	return dates
}

// AvailableSlots свободные времена начала на дату для услуги длительностью duration.
// Для сегодняшней даты прошедшие времена не предлагаются.
func (s *SlotService) AvailableSlots(ctx context.Context, date model.Date, duration int) ([]model.Clock, error) {
	if !s.InHorizon(date) {
		return nil, invalid("booking_date", "date is outside the booking horizon")
	}
	if duration <= 0 {
		return nil, invalid("duration_minutes", "duration_minutes must be positive")
	}

	windows := s.resolver.Resolve(date)
	if len(windows) == 0 {
		return nil, nil
	}

	taken, err := s.taken.TakenSlots(ctx, date)
	if err != nil {
		return nil, err
	}

	var earliest model.Clock
	if now := s.now().In(s.opts.Location); model.DateOf(now) == date {
		earliest = model.NewClock(now.Hour(), now.Minute()) + 1
	}

	var slots []model.Clock
	for slot := range schedule.Available(schedule.Slots(windows, duration, s.opts.Step), taken) {
		if slot >= earliest {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// IsAvailable проверяет, что время всё ещё предлагается на дату
func (s *SlotService) IsAvailable(ctx context.Context, date model.Date, at model.Clock, duration int) (bool, error) {
	slots, err := s.AvailableSlots(ctx, date, duration)
	if err != nil {
		return false, err
	}
	return slices.Contains(slots, at), nil
}

// IsOffered проверяет, что время лежит на сетке рабочих окон даты, без учёта занятости.
// Отличает «такого слота нет» от «слот уже занят».
func (s *SlotService) IsOffered(date model.Date, at model.Clock, duration int) bool {
	if !s.InHorizon(date) || duration <= 0 {
		return false
	}
	if now := s.now().In(s.opts.Location); model.DateOf(now) == date && at <= model.NewClock(now.Hour(), now.Minute()) {
		return false
	}
	for slot := range schedule.Slots(s.resolver.Resolve(date), duration, s.opts.Step) {
		if slot == at {
			return true
		}
	}
	return false
}
