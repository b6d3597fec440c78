package model

import "time"

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID              int64         `json:"id"`
	Date            Date          `json:"booking_date"`
	Time            Clock         `json:"booking_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Service         string        `json:"service"`
	CustomerName    string        `json:"customer_name"`
	CustomerPhone   string        `json:"customer_phone"`
	OwnerID         string        `json:"owner_id,omitempty"`
	Status          BookingStatus `json:"status"`
	CancelToken     string        `json:"-"` // выдаётся только создателю записи
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Key возвращает идентичность записи среди активных
func (b *Booking) Key() SlotKey {
	return SlotKey{Date: b.Date, Time: b.Time}
}

func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusActive
}

// BookingRequest данные для создания записи.
// Границы длительности и названия услуги дублируют константы MinService*/MaxService*.
type BookingRequest struct {
	Date            Date   `json:"booking_date"`
	Time            Clock  `json:"booking_time" validate:"gte=0,lt=1440"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=5,max=480"`
	Service         string `json:"service" validate:"required,min=2,max=100"`
	CustomerName    string `json:"customer_name" validate:"required,min=1,max=100"`
	CustomerPhone   string `json:"customer_phone" validate:"required,e164"`
	OwnerID         string `json:"owner_id,omitempty" validate:"max=64"`
}
