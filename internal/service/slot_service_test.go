package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/repository/memory"
	"github.com/Freeeeeet/loft_booking_bot/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustWindows(t *testing.T, s string) []model.Window {
	t.Helper()
	ws, err := model.ParseWindows(s)
	require.NoError(t, err)
	return ws
}

func clockStrings(slots []model.Clock) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out
}

// bookingDay (2025-10-25) суббота
func newSlotFixture(t *testing.T, now time.Time) (*SlotService, *BookingService, *schedule.Store) {
	t.Helper()
	weekly := model.WeeklySchedule{
		time.Monday:   mustWindows(t, "11:00-14:00,17:00-20:00"),
		time.Saturday: mustWindows(t, "09:00-20:00"),
	}
	store := schedule.NewStore(weekly, memory.NewScheduleStore(), zap.NewNop())
	bookings := newBookingService()

	slots := NewSlotService(store, bookings, SlotOptions{
		HorizonDays: 14,
		Location:    time.UTC,
		Now:         func() time.Time { return now },
	})
	return slots, bookings, store
}

func TestAvailableSlots_FullDay(t *testing.T) {
	slots, _, _ := newSlotFixture(t, time.Date(2025, 10, 24, 12, 0, 0, 0, time.UTC))

	got, err := slots.AvailableSlots(context.Background(), bookingDay, 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00",
		"15:00", "16:00", "17:00", "18:00", "19:00"}, clockStrings(got))
}

func TestAvailableSlots_ExcludesBooked(t *testing.T) {
	ctx := context.Background()
	slots, bookings, _ := newSlotFixture(t, time.Date(2025, 10, 24, 12, 0, 0, 0, time.UTC))

	_, err := bookings.CreateBooking(ctx, newRequest("11:00"))
	require.NoError(t, err)

	got, err := slots.AvailableSlots(ctx, bookingDay, 60)
	require.NoError(t, err)
	assert.NotContains(t, clockStrings(got), "11:00")
	assert.Len(t, got, 10)

	ok, err := slots.IsAvailable(ctx, bookingDay, model.NewClock(11, 0), 60)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = slots.IsAvailable(ctx, bookingDay, model.NewClock(12, 0), 60)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAvailableSlots_GridFollowsService(t *testing.T) {
	slots, _, _ := newSlotFixture(t, time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC))
	monday := model.Date{Year: 2025, Month: time.October, Day: 20}

	got, err := slots.AvailableSlots(context.Background(), monday, 30)
	require.NoError(t, err)
	assert.Len(t, got, 12)
	assert.Equal(t, "11:30", got[1].String())

	got, err = slots.AvailableSlots(context.Background(), monday, 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"11:00", "12:00", "13:00", "17:00", "18:00", "19:00"}, clockStrings(got))
}

func TestAvailableSlots_TodaySkipsPast(t *testing.T) {
	slots, _, _ := newSlotFixture(t, time.Date(2025, 10, 25, 15, 30, 0, 0, time.UTC))

	got, err := slots.AvailableSlots(context.Background(), bookingDay, 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"16:00", "17:00", "18:00", "19:00"}, clockStrings(got))
}

func TestAvailableSlots_DayOffAndOverride(t *testing.T) {
	ctx := context.Background()
	slots, _, store := newSlotFixture(t, time.Date(2025, 10, 24, 12, 0, 0, 0, time.UTC))

	require.NoError(t, store.AddDayOff(ctx, bookingDay))
	for _, d := range []int{15, 30, 60, 120} {
		got, err := slots.AvailableSlots(ctx, bookingDay, d)
		require.NoError(t, err)
		assert.Empty(t, got)
	}

	// воскресенье по правилу выходной, но часы на дату открывают его
	sunday := bookingDay.AddDays(1)
	require.NoError(t, store.SetCustomWindows(ctx, sunday, mustWindows(t, "10:00-12:00")))
	got, err := slots.AvailableSlots(ctx, sunday, 60)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "11:00"}, clockStrings(got))
}

func TestAvailableSlots_Horizon(t *testing.T) {
	slots, _, _ := newSlotFixture(t, time.Date(2025, 10, 24, 12, 0, 0, 0, time.UTC))

	_, err := slots.AvailableSlots(context.Background(), bookingDay.AddDays(-2), 60)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = slots.AvailableSlots(context.Background(), bookingDay.AddDays(30), 60)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOpenDates(t *testing.T) {
	slots, _, _ := newSlotFixture(t, time.Date(2025, 10, 24, 12, 0, 0, 0, time.UTC))

	dates := slots.OpenDates()
	// две субботы и два понедельника в 14-дневном горизонте с пятницы 24.10
	require.Len(t, dates, 4)
	assert.Equal(t, bookingDay, dates[0])
	for _, d := range dates {
		assert.Contains(t, []time.Weekday{time.Saturday, time.Monday}, d.Weekday())
	}
}

func TestIsOffered(t *testing.T) {
	ctx := context.Background()
	slots, bookings, _ := newSlotFixture(t, time.Date(2025, 10, 24, 12, 0, 0, 0, time.UTC))

	_, err := bookings.CreateBooking(ctx, newRequest("11:00"))
	require.NoError(t, err)

	// занятое время всё равно на сетке
	assert.True(t, slots.IsOffered(bookingDay, model.NewClock(11, 0), 60))
	assert.False(t, slots.IsOffered(bookingDay, model.NewClock(11, 30), 60))
	assert.False(t, slots.IsOffered(bookingDay, model.NewClock(20, 0), 60))
	assert.False(t, slots.IsOffered(bookingDay.AddDays(30), model.NewClock(11, 0), 60))
	assert.False(t, slots.IsOffered(bookingDay, model.NewClock(11, 0), 0))
}
