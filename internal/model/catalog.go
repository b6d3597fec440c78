package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Границы услуги, совпадают с тегами validate у BookingRequest
const (
	MinServiceMinutes = 5
	MaxServiceMinutes = 480
	MinServiceTitle   = 2
	MaxServiceTitle   = 100
)

// Service услуга студии и её длительность
type Service struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Validate проверяет, что запись на услугу пройдёт валидацию журнала
func (s Service) Validate() error {
	if n := utf8.RuneCountInString(s.Title); n < MinServiceTitle || n > MaxServiceTitle {
		return fmt.Errorf("title must be %d-%d characters", MinServiceTitle, MaxServiceTitle)
	}
	if s.DurationMinutes < MinServiceMinutes || s.DurationMinutes > MaxServiceMinutes {
		return fmt.Errorf("duration must be %d-%d minutes", MinServiceMinutes, MaxServiceMinutes)
	}
	return nil
}

// Catalog список услуг в порядке показа
type Catalog []Service

// Find ищет услугу по названию без учёта регистра
func (c Catalog) Find(title string) (Service, bool) {
	title = strings.TrimSpace(title)
	for _, s := range c {
		if strings.EqualFold(s.Title, title) {
			return s, true
		}
	}
	return Service{}, false
}

// Titles названия услуг для кнопок
func (c Catalog) Titles() []string {
	titles := make([]string, len(c))
	for i, s := range c {
		titles[i] = s.Title
	}
	return titles
}
