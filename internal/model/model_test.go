package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "iso", input: "2025-10-25", want: Date{2025, time.October, 25}},
		{name: "dotted", input: "25.10.2025", want: Date{2025, time.October, 25}},
		{name: "surrounding spaces", input: "  2025-10-25 ", want: Date{2025, time.October, 25}},
		{name: "impossible day", input: "2025-02-30", wantErr: true},
		{name: "garbage", input: "завтра", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDate_Arithmetic(t *testing.T) {
	d := Date{2025, time.December, 31}

	assert.Equal(t, Date{2026, time.January, 1}, d.AddDays(1))
	assert.Equal(t, time.Wednesday, d.Weekday())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.False(t, d.Before(d))
	assert.Equal(t, "31.12.2025", d.Display())
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    Clock
		wantErr bool
	}{
		{input: "09:00", want: 540},
		{input: "9:00", want: 540},
		{input: "23:59", want: 1439},
		{input: "00:00", want: 0},
		{input: "24:00", wantErr: true},
		{input: "12:5", wantErr: true},
		{input: "12-00", wantErr: true},
		{input: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, NewClock(got.Hour(), got.Minute()))
		})
	}
}

func TestParseWindows(t *testing.T) {
	windows, err := ParseWindows("11:00-14:00, 17:00-20:00")
	require.NoError(t, err)
	assert.Equal(t, []Window{
		{Start: NewClock(11, 0), End: NewClock(14, 0)},
		{Start: NewClock(17, 0), End: NewClock(20, 0)},
	}, windows)
	assert.Equal(t, "11:00-14:00,17:00-20:00", FormatWindows(windows))

	untilMidnight, err := ParseWindows("20:00-24:00")
	require.NoError(t, err)
	assert.Equal(t, 240, untilMidnight[0].Minutes())

	for _, bad := range []string{"", "14:00-11:00", "11:00-14:00,13:00-15:00", "11:00", "11:00-11:00"} {
		_, err := ParseWindows(bad)
		assert.Error(t, err, bad)
	}
}

func TestBookingJSON(t *testing.T) {
	b := Booking{
		ID:          7,
		Date:        Date{2025, time.October, 25},
		Time:        NewClock(11, 0),
		Status:      BookingStatusActive,
		CancelToken: "secret",
	}

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"booking_date":"2025-10-25"`)
	assert.Contains(t, string(data), `"booking_time":"11:00"`)
	assert.NotContains(t, string(data), "secret")

	var req BookingRequest
	require.NoError(t, json.Unmarshal([]byte(`{"booking_date":"25.10.2025","booking_time":"17:30"}`), &req))
	assert.Equal(t, Date{2025, time.October, 25}, req.Date)
	assert.Equal(t, NewClock(17, 30), req.Time)
}

func TestCatalogFind(t *testing.T) {
	c := Catalog{{Title: "Классический массаж спины", DurationMinutes: 30}}

	s, ok := c.Find("  классический массаж СПИНЫ ")
	require.True(t, ok)
	assert.Equal(t, 30, s.DurationMinutes)

	_, ok = c.Find("Йога")
	assert.False(t, ok)
}
