package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/rollcall/internal/dategen"
	"github.com/ryanbastic/rollcall/internal/schedule"
	"github.com/ryanbastic/rollcall/internal/session"
	"github.com/ryanbastic/rollcall/internal/storage"
)

const loadFailedMessage = "Failed to load calendar data. Please try again."

// Notice kinds shown to the user alongside a mutation result.
const (
	NoticeSuccess = "success"
	NoticeInfo    = "info"
)

// Notice is the user-facing message attached to a mutation result.
type Notice struct {
	Kind        string `json:"kind" enum:"success,info" doc:"Notice kind"`
	Title       string `json:"title" doc:"Short headline"`
	Description string `json:"description" doc:"Human-readable detail"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// mapError translates a cache error into an HTTP error. Validation and lookup
// errors keep their own message; anything else is a persistence failure and
// is reported with failure, the internal error never leaves the process.
func mapError(err error, failure string) error {
	switch {
	case errors.Is(err, session.ErrNotLoaded):
		return huma.Error503ServiceUnavailable(loadFailedMessage)
	case errors.Is(err, session.ErrUnknownParticipant):
		return huma.Error404NotFound("participant not found")
	case errors.Is(err, session.ErrUnknownDate):
		return huma.Error404NotFound("date not found")
	case errors.Is(err, storage.ErrNotFound):
		return huma.Error404NotFound("not found")
	case errors.Is(err, session.ErrEmptyName),
		errors.Is(err, schedule.ErrInvalidStatus),
		errors.Is(err, dategen.ErrInvalidDate),
		errors.Is(err, dategen.ErrInvalidCount),
		errors.Is(err, dategen.ErrTooManyDates):
		return huma.Error422UnprocessableEntity(err.Error())
	}
	return huma.Error502BadGateway(failure)
}
