package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/repository"
	"go.uber.org/zap"
)

// BookingService журнал записей: допуск новой записи (ровно один победитель на слот) и отмена
type BookingService struct {
	store     repository.BookingStore
	validator *BookingValidator
	adminID   string
	logger    *zap.Logger

	newToken func() (string, error)
}

func NewBookingService(store repository.BookingStore, adminID string, logger *zap.Logger) *BookingService {
	return &BookingService{
		store:     store,
		validator: NewBookingValidator(),
		adminID:   adminID,
		logger:    logger,
		newToken:  NewCancelToken,
	}
}

// IsAdmin проверяет, что actorID совпадает с администратором
func (s *BookingService) IsAdmin(actorID string) bool {
	return s.adminID != "" && actorID == s.adminID
}

// CreateBooking создаёт запись. Проверка занятости и вставка атомарны на уровне хранилища,
// при гонке за один слот выигрывает ровно один вызов, остальные получают ErrSlotUnavailable.
func (s *BookingService) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Service:         req.Service,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		OwnerID:         req.OwnerID,
		Status:          model.BookingStatusActive,
		CancelToken:     token,
	}

	if err := s.store.Insert(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.logger.Warn("Slot already taken",
				zap.String("slot", booking.Key().String()),
				zap.String("owner_id", req.OwnerID))
			return nil, fmt.Errorf("book %s: %w", booking.Key(), ErrSlotUnavailable)
		}
		s.logger.Error("Failed to insert booking", zap.Error(err))
		return nil, storageError("create booking", err)
	}

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.String("slot", booking.Key().String()),
		zap.String("service", booking.Service),
		zap.String("owner_id", booking.OwnerID))

	return booking, nil
}

// CancelByToken самостоятельная отмена по токену, повторная отмена даёт ErrNotFound
func (s *BookingService) CancelByToken(ctx context.Context, token string) (*model.Booking, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	booking, err := s.store.CancelByToken(ctx, token)
	if err != nil {
		return nil, s.mapStoreError("cancel booking by token", err)
	}

	s.logger.Info("Booking cancelled by token",
		zap.Int64("booking_id", booking.ID),
		zap.String("slot", booking.Key().String()))
	return booking, nil
}

// CancelByID отмена администратором
func (s *BookingService) CancelByID(ctx context.Context, id int64, actorID string) (*model.Booking, error) {
	if !s.IsAdmin(actorID) {
		s.logger.Warn("Unauthorized cancel attempt",
			zap.Int64("booking_id", id),
			zap.String("actor_id", actorID))
		return nil, ErrUnauthorized
	}

	booking, err := s.store.CancelByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreError("cancel booking by id", err)
	}

	s.logger.Info("Booking cancelled by admin",
		zap.Int64("booking_id", booking.ID),
		zap.String("slot", booking.Key().String()))
	return booking, nil
}

// GetByToken запись по токену в любом статусе
func (s *BookingService) GetByToken(ctx context.Context, token string) (*model.Booking, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	booking, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return nil, s.mapStoreError("get booking by token", err)
	}
	return booking, nil
}

func (s *BookingService) ListActiveByDate(ctx context.Context, date model.Date) ([]*model.Booking, error) {
	bookings, err := s.store.ListActiveByDate(ctx, date)
	if err != nil {
		return nil, s.mapStoreError("list bookings by date", err)
	}
	return bookings, nil
}

func (s *BookingService) ListActiveByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error) {
	bookings, err := s.store.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.mapStoreError("list bookings by owner", err)
	}
	return bookings, nil
}

func (s *BookingService) ListAllActive(ctx context.Context) ([]*model.Booking, error) {
	bookings, err := s.store.ListAllActive(ctx)
	if err != nil {
		return nil, s.mapStoreError("list active bookings", err)
	}
	return bookings, nil
}

// TakenSlots времена начала активных записей на дату
func (s *BookingService) TakenSlots(ctx context.Context, date model.Date) (map[model.Clock]struct{}, error) {
	bookings, err := s.ListActiveByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	taken := make(map[model.Clock]struct{}, len(bookings))
	for _, b := range bookings {
		taken[b.Time] = struct{}{}
	}
	return taken, nil
}

// PurgePast отменяет активные записи с датой раньше reference и возвращает их количество
func (s *BookingService) PurgePast(ctx context.Context, reference model.Date) (int64, error) {
	n, err := s.store.CancelBefore(ctx, reference)
	if err != nil {
		return 0, s.mapStoreError("purge past bookings", err)
	}

	s.logger.Info("Past bookings purged",
		zap.String("before", reference.String()),
		zap.Int64("count", n))
	return n, nil
}

func (s *BookingService) mapStoreError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	s.logger.Error("Booking store failure", zap.String("op", op), zap.Error(err))
	return storageError(op, err)
}
