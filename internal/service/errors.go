package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrNotFound        = errors.New("booking not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrStorage         = errors.New("storage failure")
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors набор ошибок по полям, errors.Is(err, ErrValidation) == true
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return ValidationErrors{{Field: field, Message: message}}
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
