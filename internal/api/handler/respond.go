package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/waitline/waitline/internal/domain"
	"github.com/waitline/waitline/internal/geo"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// mapError translates domain sentinel errors to HTTP status codes.
// All mapping lives here so individual handlers stay concise.
func mapError(w http.ResponseWriter, err error) {
	var transition *domain.InvalidTransitionError
	switch {
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrAlertNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &transition),
		errors.Is(err, domain.ErrEntryNotActive):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnknownBusiness),
		errors.Is(err, domain.ErrBusinessIDRequired),
		errors.Is(err, domain.ErrNameTooLong),
		errors.Is(err, domain.ErrInvalidTriggerDistance),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, geo.ErrInvalidCoordinate):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrDispatchFull):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
