package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/raid-guild/x402-tip-links/types"
	"github.com/raid-guild/x402-tip-links/utils"
)

const maxBodyBytes = 1 << 20

// writeJSON writes v as the JSON response body with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {

	// Marshal the response to JSON bytes
	responseBytes, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to marshal response", "error", err)
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}

	// Set the content type and write the status code
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Write the response bytes to the response body
	if _, err := w.Write(responseBytes); err != nil {
		// Header already written so we log the error
		h.logger.Warn("failed to write response", "error", err)
	}
}

// writeError converts err into the JSON error envelope. Internal errors are logged and
// never exposed to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var se utils.StatusError
	if !errors.As(err, &se) || se.Status() >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		h.writeJSON(w, http.StatusInternalServerError, types.ErrorResponse{Error: "Internal server error"})
		return
	}

	h.writeJSON(w, se.Status(), types.ErrorResponse{
		Error:  se.Error(),
		Reason: se.Reason(),
	})
}

// decodeBody decodes the JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return utils.NewValidationError("Invalid request body")
	}
	return nil
}
