package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Freeeeeet/loft_booking_bot/internal/service"
)

type errorResponse struct {
	Error   string                    `json:"error"`
	Details []service.ValidationError `json:"details,omitempty"`
}

type dataResponse struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, dataResponse{Data: data})
}

// writeError переводит доменную ошибку в HTTP статус
func writeError(w http.ResponseWriter, err error) {
	var verrs service.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "Validation failed", Details: verrs})
	case errors.Is(err, service.ErrSlotUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Slot is already taken"})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Booking not found"})
	case errors.Is(err, service.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
