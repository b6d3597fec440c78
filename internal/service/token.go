package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const cancelTokenBytes = 32

// NewCancelToken непрозрачный токен отмены записи (URL-safe base64)
func NewCancelToken() (string, error) {
	b := make([]byte, cancelTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate cancel token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
