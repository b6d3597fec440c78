package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay количество минут в сутках
const MinutesPerDay = 24 * 60

// Clock время суток в минутах от полуночи
type Clock int

// NewClock собирает время из часов и минут
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock разбирает "ЧЧ:ММ" (допускается "9:00")
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || len(hh) > 2 || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return NewClock(hour, minute), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// SlotKey идентичность активной записи: на одну дату и время может быть только одна
type SlotKey struct {
	Date Date
	Time Clock
}

func (k SlotKey) String() string {
	return k.Date.String() + " " + k.Time.String()
}
