package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"fundtrack/internal/core"
	"fundtrack/internal/storage"
)

// envelope is the wire shape shared by every endpoint:
// {success:true, data/message} on success, {success:false, error} otherwise.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

// writeFailure maps service errors onto the envelope: validation
// problems are the client's fault, anything else is a store failure
// surfaced as a 500 with the underlying message.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrUnavailable):
		slog.ErrorContext(r.Context(), "Record store unavailable", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody parses a JSON request body into dst. Amount and date
// fields carry their own parsing rules, so a malformed amount comes
// back as a validation error rather than a generic decode failure.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty request body", core.ErrValidation)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		if errors.Is(err, core.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON: %v", core.ErrValidation, err)
	}
	return nil
}
