// Package conversation диалог записи и администрирования как конечный автомат
// поверх хранилища сессий.
package conversation

import (
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
)

// State текущее состояние сессии
type State string

const (
	StateIdle State = "" // Нет активного диалога

	// Запись клиента
	StateChooseService State = "choose_service"
	StateChooseDate    State = "choose_date"
	StateChooseTime    State = "choose_time"
	StateEnterName     State = "enter_name"
	StateEnterPhone    State = "enter_phone"

	// Администрирование
	StateAdminMenu         State = "admin_menu"
	StateAdminDayOffAdd    State = "admin_day_off_add"
	StateAdminDayOffRemove State = "admin_day_off_remove"
	StateAdminWindowsDate  State = "admin_windows_date"
	StateAdminWindowsValue State = "admin_windows_value"
	StateAdminCancelID     State = "admin_cancel_id"
)

// AllStates все состояния автомата
var AllStates = []State{
	StateIdle,
	StateChooseService,
	StateChooseDate,
	StateChooseTime,
	StateEnterName,
	StateEnterPhone,
	StateAdminMenu,
	StateAdminDayOffAdd,
	StateAdminDayOffRemove,
	StateAdminWindowsDate,
	StateAdminWindowsValue,
	StateAdminCancelID,
}

// IsAdmin состояние принадлежит административному сценарию
func (s State) IsAdmin() bool {
	switch s {
	case StateAdminMenu, StateAdminDayOffAdd, StateAdminDayOffRemove,
		StateAdminWindowsDate, StateAdminWindowsValue, StateAdminCancelID:
		return true
	}
	return false
}

// Draft накопленные данные незавершённой записи
type Draft struct {
	Service  string       `json:"service,omitempty"`
	Duration int          `json:"duration,omitempty"`
	Date     model.Date   `json:"date"`
	Time     *model.Clock `json:"time,omitempty"`
	Name     string       `json:"name,omitempty"`
}

// Session диалог одного чата
type Session struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	Draft     Draft     `json:"draft"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newSession(id string) *Session {
	return &Session{ID: id, State: StateIdle}
}

// Reset возвращает сессию в начальное состояние
func (s *Session) Reset() {
	s.State = StateIdle
	s.Draft = Draft{}
}
