// Package notify доставляет уведомления о записях администратору и во внешние системы.
// Доставка best-effort: ошибки логируются и не возвращаются в сценарий записи.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"go.uber.org/zap"
)

type Event string

const (
	EventBookingCreated   Event = "booking.created"
	EventBookingCancelled Event = "booking.cancelled"
)

// Dispatcher получатель событий о записях
type Dispatcher interface {
	Notify(ctx context.Context, event Event, booking *model.Booking)
}

// Nop ничего не делает
type Nop struct{}

func (Nop) Notify(context.Context, Event, *model.Booking) {}

// Multi рассылает событие всем получателям по очереди
type Multi []Dispatcher

func (m Multi) Notify(ctx context.Context, event Event, booking *model.Booking) {
	for _, d := range m {
		d.Notify(ctx, event, booking)
	}
}

// Async отправляет уведомления в фоне, не задерживая ответ пользователю
type Async struct {
	next    Dispatcher
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewAsync(next Dispatcher, timeout time.Duration, logger *zap.Logger) *Async {
	return &Async{
		next:    next,
		timeout: timeout,
		logger:  logger,
	}
}

func (a *Async) Notify(ctx context.Context, event Event, booking *model.Booking) {
	// отмена входящего запроса не должна обрывать отправку
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	snapshot := *booking

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("Notification dispatcher panicked",
					zap.String("event", string(event)),
					zap.Any("panic", r))
			}
		}()

		a.next.Notify(ctx, event, &snapshot)
	}()
}

// Wait дожидается отправки всех уведомлений (при остановке сервиса)
func (a *Async) Wait() {
	a.wg.Wait()
}
