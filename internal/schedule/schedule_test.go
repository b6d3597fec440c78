package schedule

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func clock(t *testing.T, s string) model.Clock {
	t.Helper()
	c, err := model.ParseClock(s)
	require.NoError(t, err)
	return c
}

func windows(t *testing.T, s string) []model.Window {
	t.Helper()
	ws, err := model.ParseWindows(s)
	require.NoError(t, err)
	return ws
}

func clocks(t *testing.T, ss ...string) []model.Clock {
	t.Helper()
	out := make([]model.Clock, len(ss))
	for i, s := range ss {
		out[i] = clock(t, s)
	}
	return out
}

// 2025-10-20 понедельник
var monday = model.Date{Year: 2025, Month: time.October, Day: 20}

func studioWeek(t *testing.T) model.WeeklySchedule {
	return model.WeeklySchedule{
		time.Monday:    windows(t, "11:00-14:00,17:00-20:00"),
		time.Wednesday: windows(t, "11:00-14:00,17:00-20:00"),
		time.Friday:    windows(t, "11:00-14:00,17:00-20:00"),
		time.Saturday:  windows(t, "09:00-20:00"),
		time.Sunday:    windows(t, "09:00-20:00"),
	}
}

func TestResolve(t *testing.T) {
	cfg := NewConfig(studioWeek(t))
	tuesday := monday.AddDays(1)
	wednesday := monday.AddDays(2)
	saturday := monday.AddDays(5)

	cfg.DaysOff[wednesday] = struct{}{}
	cfg.CustomWindows[tuesday] = windows(t, "12:00-15:00")
	cfg.CustomWindows[saturday] = []model.Window{}

	tests := []struct {
		name string
		date model.Date
		want []model.Window
	}{
		{name: "weekday rule", date: monday, want: windows(t, "11:00-14:00,17:00-20:00")},
		{name: "weekday day off", date: monday.AddDays(3), want: nil},
		{name: "custom window opens a day off", date: tuesday, want: windows(t, "12:00-15:00")},
		{name: "forced day off closes a working day", date: wednesday, want: nil},
		{name: "explicit empty override closes a working day", date: saturday, want: nil},
		{name: "sunday rule", date: monday.AddDays(6), want: windows(t, "09:00-20:00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cfg.Resolve(tt.date)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_DayOffBeatsCustomWindow(t *testing.T) {
	cfg := NewConfig(studioWeek(t))
	cfg.CustomWindows[monday] = windows(t, "10:00-12:00")
	cfg.DaysOff[monday] = struct{}{}

	assert.Empty(t, cfg.Resolve(monday))
}

func TestResolve_ReturnsCopy(t *testing.T) {
	cfg := NewConfig(studioWeek(t))
	got := cfg.Resolve(monday)
	got[0].Start = 0

	assert.Equal(t, clock(t, "11:00"), cfg.Resolve(monday)[0].Start)
}

func TestSlots_SingleWindow(t *testing.T) {
	got := slices.Collect(Slots(windows(t, "09:00-20:00"), 60, 0))

	assert.Equal(t, clocks(t, "09:00", "10:00", "11:00", "12:00", "13:00", "14:00",
		"15:00", "16:00", "17:00", "18:00", "19:00"), got)
}

func TestSlots_SplitWindows(t *testing.T) {
	got := slices.Collect(Slots(windows(t, "11:00-14:00,17:00-20:00"), 60, 0))

	assert.Equal(t, clocks(t, "11:00", "12:00", "13:00", "17:00", "18:00", "19:00"), got)
}

func TestSlots_GridFollowsDuration(t *testing.T) {
	got := slices.Collect(Slots(windows(t, "11:00-12:30"), 30, 0))
	assert.Equal(t, clocks(t, "11:00", "11:30", "12:00"), got)

	explicitStep := slices.Collect(Slots(windows(t, "11:00-12:30"), 60, 30))
	assert.Equal(t, clocks(t, "11:00", "11:30"), explicitStep)
}

func TestSlots_DurationLongerThanWindow(t *testing.T) {
	got := slices.Collect(Slots(windows(t, "11:00-11:45,17:00-19:00"), 60, 0))
	assert.Equal(t, clocks(t, "17:00", "18:00"), got)

	assert.Empty(t, slices.Collect(Slots(windows(t, "11:00-11:45"), 60, 0)))
	assert.Empty(t, slices.Collect(Slots(windows(t, "11:00-12:00"), 0, 0)))
}

func TestSlots_Properties(t *testing.T) {
	cases := []struct {
		windows string
		step    int
	}{
		{"09:00-20:00", 0},
		{"11:00-14:00,17:00-20:00", 0},
		{"08:15-09:50,10:05-23:59", 0},
		{"09:00-20:00", 15},
		{"00:00-24:00", 45},
	}

	for _, c := range cases {
		ws := windows(t, c.windows)
		for _, duration := range []int{15, 30, 45, 60, 90, 120} {
			step := c.step
			if step <= 0 {
				step = duration
			}
			for slot := range Slots(ws, duration, c.step) {
				inside := false
				for _, w := range ws {
					if w.Start <= slot && slot.Add(duration) <= w.End {
						inside = true
						assert.Zero(t, int(slot-w.Start)%step, "slot %s off grid in %s", slot, w)
					}
				}
				assert.True(t, inside, "slot %s outside %s for %d min", slot, c.windows, duration)
			}
		}
	}
}

func TestSlots_Restartable(t *testing.T) {
	seq := Slots(windows(t, "11:00-14:00"), 60, 0)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)

	var took []model.Clock
	for slot := range seq {
		took = append(took, slot)
		break
	}
	assert.Equal(t, clocks(t, "11:00"), took)
}

func TestAvailable(t *testing.T) {
	taken := map[model.Clock]struct{}{clock(t, "11:00"): {}, clock(t, "18:00"): {}}

	got := slices.Collect(Available(Slots(windows(t, "11:00-14:00,17:00-20:00"), 60, 0), taken))

	assert.Equal(t, clocks(t, "12:00", "13:00", "17:00", "19:00"), got)
}

func TestDayOffHasNoSlots(t *testing.T) {
	cfg := NewConfig(studioWeek(t))
	cfg.DaysOff[monday] = struct{}{}

	for _, duration := range []int{15, 30, 60, 240} {
		assert.Empty(t, slices.Collect(Slots(cfg.Resolve(monday), duration, 0)))
		assert.Empty(t, slices.Collect(Slots(cfg.Resolve(monday.AddDays(1)), duration, 0)))
	}
}

type fakePersister struct {
	daysOff []model.Date
	custom  map[model.Date][]model.Window
	err     error
}

func (f *fakePersister) LoadExceptions(ctx context.Context) ([]model.Date, map[model.Date][]model.Window, error) {
	return f.daysOff, f.custom, f.err
}

func (f *fakePersister) AddDayOff(ctx context.Context, date model.Date) error {
	return f.err
}

func (f *fakePersister) RemoveDayOff(ctx context.Context, date model.Date) (bool, error) {
	return f.err == nil, f.err
}

func (f *fakePersister) SetCustomWindows(ctx context.Context, date model.Date, windows []model.Window) error {
	return f.err
}

func (f *fakePersister) ClearCustomWindows(ctx context.Context, date model.Date) (bool, error) {
	return f.err == nil, f.err
}

func TestStore_ReloadAndMutate(t *testing.T) {
	ctx := context.Background()
	persist := &fakePersister{
		daysOff: []model.Date{monday},
		custom:  map[model.Date][]model.Window{monday.AddDays(1): windows(t, "10:00-12:00")},
	}
	store := NewStore(studioWeek(t), persist, zap.NewNop())

	require.NoError(t, store.Reload(ctx))
	assert.Empty(t, store.Resolve(monday))
	assert.Equal(t, windows(t, "10:00-12:00"), store.Resolve(monday.AddDays(1)))

	removed, err := store.RemoveDayOff(ctx, monday)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NotEmpty(t, store.Resolve(monday))

	require.NoError(t, store.SetCustomWindows(ctx, monday.AddDays(5), nil))
	assert.Empty(t, store.Resolve(monday.AddDays(5)))

	cleared, err := store.ClearCustomWindows(ctx, monday.AddDays(5))
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Equal(t, windows(t, "09:00-20:00"), store.Resolve(monday.AddDays(5)))

	require.NoError(t, store.AddDayOff(ctx, monday.AddDays(2)))
	assert.Empty(t, store.Resolve(monday.AddDays(2)))
}

func TestStore_PersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	persist := &fakePersister{}
	store := NewStore(studioWeek(t), persist, zap.NewNop())
	require.NoError(t, store.Reload(ctx))

	persist.err = errors.New("connection refused")

	assert.Error(t, store.AddDayOff(ctx, monday))
	assert.NotEmpty(t, store.Resolve(monday))

	assert.Error(t, store.SetCustomWindows(ctx, monday, nil))
	assert.NotEmpty(t, store.Resolve(monday))
}

func TestStore_SetWeekly(t *testing.T) {
	store := NewStore(studioWeek(t), &fakePersister{}, zap.NewNop())
	store.SetWeekly(model.WeeklySchedule{time.Tuesday: windows(t, "10:00-11:00")})

	assert.Empty(t, store.Resolve(monday))
	assert.Equal(t, windows(t, "10:00-11:00"), store.Resolve(monday.AddDays(1)))

	snap := store.Snapshot()
	snap.DaysOff[monday.AddDays(1)] = struct{}{}
	assert.NotEmpty(t, store.Resolve(monday.AddDays(1)))
}
