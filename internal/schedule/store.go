package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"go.uber.org/zap"
)

// Persister хранит исключения расписания между перезапусками
type Persister interface {
	LoadExceptions(ctx context.Context) (daysOff []model.Date, custom map[model.Date][]model.Window, err error)
	AddDayOff(ctx context.Context, date model.Date) error
	RemoveDayOff(ctx context.Context, date model.Date) (bool, error)
	SetCustomWindows(ctx context.Context, date model.Date, windows []model.Window) error
	ClearCustomWindows(ctx context.Context, date model.Date) (bool, error)
}

// Store процессная конфигурация расписания, изменяемая администратором
type Store struct {
	mu      sync.RWMutex
	cfg     Config
	persist Persister
	logger  *zap.Logger
}

// NewStore создаёт хранилище с недельным расписанием; исключения подгружаются через Reload
func NewStore(weekly model.WeeklySchedule, persist Persister, logger *zap.Logger) *Store {
	return &Store{
		cfg:     NewConfig(weekly),
		persist: persist,
		logger:  logger,
	}
}

// Reload перечитывает исключения из хранилища
func (s *Store) Reload(ctx context.Context) error {
	daysOff, custom, err := s.persist.LoadExceptions(ctx)
	if err != nil {
		return fmt.Errorf("load schedule exceptions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.DaysOff = make(map[model.Date]struct{}, len(daysOff))
	for _, d := range daysOff {
		s.cfg.DaysOff[d] = struct{}{}
	}
	s.cfg.CustomWindows = make(map[model.Date][]model.Window, len(custom))
	for d, windows := range custom {
		s.cfg.CustomWindows[d] = append([]model.Window{}, windows...)
	}

	s.logger.Info("Schedule exceptions loaded",
		zap.Int("days_off", len(daysOff)),
		zap.Int("custom_dates", len(custom)))
	return nil
}

// SetWeekly заменяет недельное расписание (перезагрузка конфигурации)
func (s *Store) SetWeekly(weekly model.WeeklySchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Weekly = weekly.Clone()
}

// Resolve возвращает рабочие окна на дату
func (s *Store) Resolve(date model.Date) []model.Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Resolve(date)
}

// Snapshot копия текущей конфигурации
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// AddDayOff делает дату выходной
func (s *Store) AddDayOff(ctx context.Context, date model.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist.AddDayOff(ctx, date); err != nil {
		return fmt.Errorf("add day off: %w", err)
	}
	s.cfg.DaysOff[date] = struct{}{}

	s.logger.Info("Day off added", zap.String("date", date.String()))
	return nil
}

// RemoveDayOff снимает принудительный выходной. false, если дата не была закрыта
func (s *Store) RemoveDayOff(ctx context.Context, date model.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.persist.RemoveDayOff(ctx, date)
	if err != nil {
		return false, fmt.Errorf("remove day off: %w", err)
	}
	delete(s.cfg.DaysOff, date)

	s.logger.Info("Day off removed", zap.String("date", date.String()), zap.Bool("existed", removed))
	return removed, nil
}

// SetCustomWindows задаёт часы работы на конкретную дату. Пустой список закрывает день
func (s *Store) SetCustomWindows(ctx context.Context, date model.Date, windows []model.Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist.SetCustomWindows(ctx, date, windows); err != nil {
		return fmt.Errorf("set custom windows: %w", err)
	}
	s.cfg.CustomWindows[date] = append([]model.Window{}, windows...)

	s.logger.Info("Custom windows set",
		zap.String("date", date.String()),
		zap.String("windows", model.FormatWindows(windows)))
	return nil
}

// ClearCustomWindows возвращает дате правило дня недели
func (s *Store) ClearCustomWindows(ctx context.Context, date model.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.persist.ClearCustomWindows(ctx, date)
	if err != nil {
		return false, fmt.Errorf("clear custom windows: %w", err)
	}
	delete(s.cfg.CustomWindows, date)

	s.logger.Info("Custom windows cleared", zap.String("date", date.String()), zap.Bool("existed", removed))
	return removed, nil
}
