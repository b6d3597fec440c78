package memory

import (
	"context"
	"sync"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/repository"
)

// ScheduleStore исключения расписания в памяти
type ScheduleStore struct {
	mu      sync.Mutex
	daysOff map[model.Date]struct{}
	custom  map[model.Date][]model.Window
}

func NewScheduleStore() *ScheduleStore {
	return &ScheduleStore{
		daysOff: make(map[model.Date]struct{}),
		custom:  make(map[model.Date][]model.Window),
	}
}

func (s *ScheduleStore) LoadExceptions(ctx context.Context) ([]model.Date, map[model.Date][]model.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	daysOff := make([]model.Date, 0, len(s.daysOff))
	for d := range s.daysOff {
		daysOff = append(daysOff, d)
	}
	custom := make(map[model.Date][]model.Window, len(s.custom))
	for d, windows := range s.custom {
		custom[d] = append([]model.Window{}, windows...)
	}
	return daysOff, custom, nil
}

func (s *ScheduleStore) AddDayOff(ctx context.Context, date model.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.daysOff[date] = struct{}{}
	return nil
}

func (s *ScheduleStore) RemoveDayOff(ctx context.Context, date model.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.daysOff[date]
	delete(s.daysOff, date)
	return ok, nil
}

func (s *ScheduleStore) SetCustomWindows(ctx context.Context, date model.Date, windows []model.Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.custom[date] = append([]model.Window{}, windows...)
	return nil
}

func (s *ScheduleStore) ClearCustomWindows(ctx context.Context, date model.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.custom[date]
	delete(s.custom, date)
	return ok, nil
}

var _ repository.ScheduleStore = (*ScheduleStore)(nil)
