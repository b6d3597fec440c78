package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, booking_date, booking_time, duration_minutes, service,
		customer_name, customer_phone, owner_id, status, cancel_token, created_at, updated_at`

// BookingRepository журнал записей в PostgreSQL.
// Уникальность активного слота обеспечивает частичный индекс bookings_active_slot_idx.
type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

// Insert создаёт активную запись или возвращает ErrConflict, если слот занят
func (r *BookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (booking_date, booking_time, duration_minutes, service,
			customer_name, customer_phone, owner_id, status, cancel_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'active', $8)
		ON CONFLICT (booking_date, booking_time) WHERE status = 'active' DO NOTHING
		RETURNING id, status, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		toPgDate(booking.Date),
		toPgTime(booking.Time),
		booking.DurationMinutes,
		booking.Service,
		booking.CustomerName,
		booking.CustomerPhone,
		booking.OwnerID,
		booking.CancelToken,
	).Scan(&booking.ID, &booking.Status, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) || base.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	return nil
}

// GetByToken получает запись по токену отмены независимо от статуса
func (r *BookingRepository) GetByToken(ctx context.Context, token string) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE cancel_token = $1
	`

	booking, err := scanBooking(r.QueryRow(ctx, query, token))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking by token: %w", err)
	}

	return booking, nil
}

// CancelByToken отменяет активную запись по токену
func (r *BookingRepository) CancelByToken(ctx context.Context, token string) (*model.Booking, error) {
	return r.cancel(ctx, "cancel_token = $1", token)
}

// CancelByID отменяет активную запись по ID
func (r *BookingRepository) CancelByID(ctx context.Context, id int64) (*model.Booking, error) {
	return r.cancel(ctx, "id = $1", id)
}

func (r *BookingRepository) cancel(ctx context.Context, where string, arg any) (*model.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE ` + where + ` AND status = 'active'
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.QueryRow(ctx, query, arg))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	return booking, nil
}

// ListActiveByDate активные записи на дату
func (r *BookingRepository) ListActiveByDate(ctx context.Context, date model.Date) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_date = $1 AND status = 'active'
		ORDER BY booking_time
	`

	return r.list(ctx, "list bookings by date", query, toPgDate(date))
}

// ListActiveByOwner активные записи пользователя
func (r *BookingRepository) ListActiveByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE owner_id = $1 AND status = 'active'
		ORDER BY booking_date, booking_time
	`

	return r.list(ctx, "list bookings by owner", query, ownerID)
}

// ListAllActive все активные записи
func (r *BookingRepository) ListAllActive(ctx context.Context) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'active'
		ORDER BY booking_date, booking_time
	`

	return r.list(ctx, "list active bookings", query)
}

// CancelBefore отменяет активные записи с датой раньше указанной
func (r *BookingRepository) CancelBefore(ctx context.Context, date model.Date) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE booking_date < $1 AND status = 'active'
	`

	affected, err := r.ExecAffected(ctx, query, toPgDate(date))
	if err != nil {
		return 0, fmt.Errorf("cancel past bookings: %w", err)
	}

	return affected, nil
}

func (r *BookingRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		booking model.Booking
		date    pgtype.Date
		clock   pgtype.Time
	)
	err := row.Scan(
		&booking.ID,
		&date,
		&clock,
		&booking.DurationMinutes,
		&booking.Service,
		&booking.CustomerName,
		&booking.CustomerPhone,
		&booking.OwnerID,
		&booking.Status,
		&booking.CancelToken,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Date = model.DateOf(date.Time)
	booking.Time = fromPgTime(clock)
	return &booking, nil
}

func toPgDate(d model.Date) pgtype.Date {
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}
}

func toPgTime(c model.Clock) pgtype.Time {
	return pgtype.Time{Microseconds: int64(c) * int64(time.Minute/time.Microsecond), Valid: true}
}

func fromPgTime(t pgtype.Time) model.Clock {
	return model.Clock(t.Microseconds / int64(time.Minute/time.Microsecond))
}
