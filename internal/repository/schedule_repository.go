package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/repository/base"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ScheduleRepository хранит исключения расписания в PostgreSQL.
// Часы на дату записываются строкой "11:00-14:00,17:00-20:00", пустая строка означает закрытый день.
type ScheduleRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewScheduleRepository создаёт новый репозиторий
func NewScheduleRepository(pool *pgxpool.Pool, logger *zap.Logger) *ScheduleRepository {
	return &ScheduleRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// LoadExceptions загружает все выходные даты и часы на даты
func (r *ScheduleRepository) LoadExceptions(ctx context.Context) ([]model.Date, map[model.Date][]model.Window, error) {
	rows, err := r.Query(ctx, `SELECT day FROM schedule_days_off ORDER BY day`)
	if err != nil {
		return nil, nil, fmt.Errorf("load days off: %w", err)
	}
	defer rows.Close()

	var daysOff []model.Date
	for rows.Next() {
		var day pgtype.Date
		if err := rows.Scan(&day); err != nil {
			return nil, nil, fmt.Errorf("scan day off: %w", err)
		}
		daysOff = append(daysOff, model.DateOf(day.Time))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("load days off: %w", err)
	}

	overrideRows, err := r.Query(ctx, `SELECT exception_date, windows FROM schedule_date_overrides`)
	if err != nil {
		return nil, nil, fmt.Errorf("load date overrides: %w", err)
	}
	defer overrideRows.Close()

	custom := make(map[model.Date][]model.Window)
	for overrideRows.Next() {
		var (
			day     pgtype.Date
			encoded string
		)
		if err := overrideRows.Scan(&day, &encoded); err != nil {
			return nil, nil, fmt.Errorf("scan date override: %w", err)
		}

		date := model.DateOf(day.Time)
		if encoded == "" {
			custom[date] = []model.Window{}
			continue
		}
		windows, err := model.ParseWindows(encoded)
		if err != nil {
			// битая строка не должна ломать запуск
			r.logger.Warn("Skipping malformed date override",
				zap.String("date", date.String()),
				zap.String("windows", encoded),
				zap.Error(err))
			continue
		}
		custom[date] = windows
	}
	if err := overrideRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("load date overrides: %w", err)
	}

	return daysOff, custom, nil
}

// AddDayOff закрывает дату
func (r *ScheduleRepository) AddDayOff(ctx context.Context, date model.Date) error {
	query := `INSERT INTO schedule_days_off (day) VALUES ($1) ON CONFLICT (day) DO NOTHING`

	if _, err := r.ExecAffected(ctx, query, toPgDate(date)); err != nil {
		return fmt.Errorf("add day off: %w", err)
	}
	return nil
}

// RemoveDayOff снимает принудительный выходной
func (r *ScheduleRepository) RemoveDayOff(ctx context.Context, date model.Date) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM schedule_days_off WHERE day = $1`, toPgDate(date))
	if err != nil {
		return false, fmt.Errorf("remove day off: %w", err)
	}
	return affected > 0, nil
}

// SetCustomWindows задаёт часы работы на дату
func (r *ScheduleRepository) SetCustomWindows(ctx context.Context, date model.Date, windows []model.Window) error {
	query := `
		INSERT INTO schedule_date_overrides (exception_date, windows)
		VALUES ($1, $2)
		ON CONFLICT (exception_date) DO UPDATE SET windows = EXCLUDED.windows, updated_at = NOW()
	`

	if _, err := r.ExecAffected(ctx, query, toPgDate(date), model.FormatWindows(windows)); err != nil {
		return fmt.Errorf("set custom windows: %w", err)
	}
	return nil
}

// ClearCustomWindows удаляет часы на дату
func (r *ScheduleRepository) ClearCustomWindows(ctx context.Context, date model.Date) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM schedule_date_overrides WHERE exception_date = $1`, toPgDate(date))
	if err != nil {
		return false, fmt.Errorf("clear custom windows: %w", err)
	}
	return affected > 0, nil
}
