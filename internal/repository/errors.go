package repository

import "errors"

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrConflict слот (дата, время) уже занят активной записью
	ErrConflict = errors.New("slot already booked")
)
