package app

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"go.uber.org/zap"
)

// Purger снимает с учёта записи на прошедшие даты
type Purger interface {
	PurgePast(ctx context.Context, reference model.Date) (int64, error)
}

// IdleEvictor удаляет простаивающие сессии (хранилище в памяти)
type IdleEvictor interface {
	EvictIdle(timeout time.Duration) int
}

type SchedulerConfig struct {
	PurgeInterval time.Duration
	SessionTTL    time.Duration
	Today         func() model.Date
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	purger   Purger
	sessions IdleEvictor
	cfg      SchedulerConfig
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик. sessions может быть nil,
// если сессии истекают сами (Redis TTL).
func NewScheduler(purger Purger, sessions IdleEvictor, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		purger:   purger,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	if s.cfg.PurgeInterval > 0 {
		s.run(ctx, "purge_past", s.cfg.PurgeInterval, true, s.purgePast)
	}

	if s.sessions != nil && s.cfg.SessionTTL > 0 {
		// проверяем заметно чаще, чем истекает сессия
		interval := min(s.cfg.SessionTTL/4, time.Hour)
		s.run(ctx, "evict_sessions", max(interval, time.Minute), false, s.evictSessions)
	}
}

// Stop останавливает фоновые задачи и дожидается их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, name string, interval time.Duration, immediately bool, task func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Первый запуск сразу при старте
		if immediately {
			task(ctx)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				task(ctx)
			case <-s.stopChan:
				s.logger.Info("Background task stopped", zap.String("task", name))
				return
			case <-ctx.Done():
				s.logger.Info("Background task cancelled", zap.String("task", name))
				return
			}
		}
	}()
}

// purgePast отменяет активные записи на даты раньше сегодняшней
func (s *Scheduler) purgePast(ctx context.Context) {
	today := s.cfg.Today()

	n, err := s.purger.PurgePast(ctx, today)
	if err != nil {
		s.logger.Error("Failed to purge past bookings", zap.Error(err))
		return
	}

	s.logger.Info("Past bookings purged",
		zap.String("before", today.String()),
		zap.Int64("count", n))
}

func (s *Scheduler) evictSessions(context.Context) {
	if n := s.sessions.EvictIdle(s.cfg.SessionTTL); n > 0 {
		s.logger.Info("Idle sessions evicted", zap.Int("count", n))
	}
}
