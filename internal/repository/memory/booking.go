// Package memory хранилища в памяти процесса: для тестов и запуска без базы (STORAGE=memory).
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/repository"
)

// BookingStore журнал записей в памяти. Индекс active держит ключи активных
// записей, проверка и вставка выполняются под одним мьютексом.
type BookingStore struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*model.Booking
	active   map[model.SlotKey]int64
	now      func() time.Time
}

func NewBookingStore() *BookingStore {
	return &BookingStore{
		bookings: make(map[int64]*model.Booking),
		active:   make(map[model.SlotKey]int64),
		now:      time.Now,
	}
}

func (s *BookingStore) Insert(ctx context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.active[booking.Key()]; taken {
		return repository.ErrConflict
	}

	s.nextID++
	now := s.now()
	booking.ID = s.nextID
	booking.Status = model.BookingStatusActive
	booking.CreatedAt = now
	booking.UpdatedAt = now

	stored := *booking
	s.bookings[stored.ID] = &stored
	s.active[stored.Key()] = stored.ID
	return nil
}

func (s *BookingStore) GetByToken(ctx context.Context, token string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		return nil, repository.ErrNotFound
	}
	for _, b := range s.bookings {
		if b.CancelToken == token {
			out := *b
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *BookingStore) CancelByToken(ctx context.Context, token string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.findToken(token)
	if b == nil {
		return nil, repository.ErrNotFound
	}
	return s.cancelLocked(b), nil
}

func (s *BookingStore) CancelByID(ctx context.Context, id int64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || !b.IsActive() {
		return nil, repository.ErrNotFound
	}
	return s.cancelLocked(b), nil
}

func (s *BookingStore) ListActiveByDate(ctx context.Context, date model.Date) ([]*model.Booking, error) {
	return s.filter(func(b *model.Booking) bool { return b.Date == date }), nil
}

func (s *BookingStore) ListActiveByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error) {
	return s.filter(func(b *model.Booking) bool { return b.OwnerID == ownerID }), nil
}

func (s *BookingStore) ListAllActive(ctx context.Context) ([]*model.Booking, error) {
	return s.filter(func(*model.Booking) bool { return true }), nil
}

func (s *BookingStore) CancelBefore(ctx context.Context, date model.Date) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, b := range s.bookings {
		if b.IsActive() && b.Date.Before(date) {
			s.cancelLocked(b)
			n++
		}
	}
	return n, nil
}

func (s *BookingStore) findToken(token string) *model.Booking {
	if token == "" {
		return nil
	}
	for _, b := range s.bookings {
		if b.IsActive() && b.CancelToken == token {
			return b
		}
	}
	return nil
}

func (s *BookingStore) cancelLocked(b *model.Booking) *model.Booking {
	delete(s.active, b.Key())
	b.Status = model.BookingStatusCancelled
	b.UpdatedAt = s.now()
	out := *b
	return &out
}

func (s *BookingStore) filter(keep func(*model.Booking) bool) []*model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Booking
	for _, b := range s.bookings {
		if b.IsActive() && keep(b) {
			copied := *b
			out = append(out, &copied)
		}
	}
	slices.SortFunc(out, func(a, b *model.Booking) int {
		if a.Date != b.Date {
			if a.Date.Before(b.Date) {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Time, b.Time)
	})
	return out
}

var _ repository.BookingStore = (*BookingStore)(nil)
