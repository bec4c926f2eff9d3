package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/proctored-quiz/internal/session"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// statusFor maps session errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrEmptySubmission):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNotActive),
		errors.Is(err, session.ErrAlreadyGraded),
		errors.Is(err, session.ErrBlocked),
		errors.Is(err, session.ErrNoPendingSubmit),
		errors.Is(err, session.ErrNoWarning),
		errors.Is(err, session.ErrNotAcknowledged),
		errors.Is(err, session.ErrNotGraded),
		errors.Is(err, session.ErrSubmitCancelled):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondErr(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}
