// Package httpx holds the JSON response envelope shared by every handler.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the uniform error body: a stable machine-readable code
// plus optional field-level details.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload with the given status. Marshalling happens before the
// status line goes out so a failed encode never leaves a truncated body
// behind a 2xx.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	body := []byte("null")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// headers are already sent; the write error has nowhere to go
		_ = err
	}
}

// JSONError writes an ErrorResponse with the given status and code.
func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}
