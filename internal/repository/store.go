package repository

import (
	"context"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
)

// BookingStore журнал записей. Insert атомарен: проверка занятости и вставка
// выполняются одним шагом, при занятом ключе возвращается ErrConflict.
// GetByToken возвращает запись в любом статусе, ErrNotFound только для
// неизвестного токена. Все списки содержат только активные записи и
// отсортированы по (дата, время).
type BookingStore interface {
	Insert(ctx context.Context, booking *model.Booking) error
	GetByToken(ctx context.Context, token string) (*model.Booking, error)
	CancelByToken(ctx context.Context, token string) (*model.Booking, error)
	CancelByID(ctx context.Context, id int64) (*model.Booking, error)
	ListActiveByDate(ctx context.Context, date model.Date) ([]*model.Booking, error)
	ListActiveByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error)
	ListAllActive(ctx context.Context) ([]*model.Booking, error)
	CancelBefore(ctx context.Context, date model.Date) (int64, error)
}

// ScheduleStore хранит исключения расписания: выходные даты и часы на дату
type ScheduleStore interface {
	LoadExceptions(ctx context.Context) ([]model.Date, map[model.Date][]model.Window, error)
	AddDayOff(ctx context.Context, date model.Date) error
	RemoveDayOff(ctx context.Context, date model.Date) (bool, error)
	SetCustomWindows(ctx context.Context, date model.Date, windows []model.Window) error
	ClearCustomWindows(ctx context.Context, date model.Date) (bool, error)
}
