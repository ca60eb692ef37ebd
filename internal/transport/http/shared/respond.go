// Package shared holds the JSON response helpers every handler uses so
// error envelopes stay identical across endpoints.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"cleanghana/pkg/domainerrors"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError translates a domain error to its HTTP status and envelope.
// Unknown errors become an opaque 500 so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	var de *domainerrors.Error
	if errors.As(err, &de) {
		WriteJSON(w, domainerrors.ToHTTPStatus(de.Code), ErrorResponse{
			Error:   string(de.Code),
			Message: de.Message,
		})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: string(domainerrors.CodeInternal),
	})
}
