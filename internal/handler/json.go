package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/scheduler"
	"github.com/go-playground/validator/v10"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "internal server error",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

// schedulerError maps scheduling failures onto the response envelope.
// Conflicts are reported with the conflicting events so the client can show
// them; everything else degrades to a plain error message.
func (h *Handler) schedulerError(w http.ResponseWriter, r *http.Request, err error) {
	var conflictErr *scheduler.ConflictError
	var transitionErr *scheduler.TransitionError

	switch {
	case errors.As(err, &conflictErr):
		h.writeJSON(w, r, http.StatusOK, Response{
			Success: false,
			Message: "schedule conflict detected",
			Data: map[string]any{
				"conflicts": conflictErr.Conflicts,
			},
		})
	case errors.As(err, &transitionErr):
		h.errorResponse(w, r, err.Error())
	case errors.Is(err, scheduler.ErrInvalidRange):
		h.errorResponse(w, r, "end date must not be before start date")
	case errors.Is(err, scheduler.ErrInvalidClock):
		h.errorResponse(w, r, err.Error())
	case errors.Is(err, scheduler.ErrNotFound):
		h.errorResponse(w, r, "schedule event not found")
	case errors.Is(err, scheduler.ErrPermissionDenied):
		h.errorResponse(w, r, "permission denied")
	default:
		h.internalServerError(w, r, err)
	}
}
