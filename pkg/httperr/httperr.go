// Package httperr writes the uniform JSON error envelope shared by every
// storefront service and the gateway.
package httperr

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every error response.
type Envelope struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Write responds with status and an Envelope carrying msg.
func Write(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Status is already sent; an encode failure means the client is gone.
	_ = json.NewEncoder(w).Encode(Envelope{Error: msg, Code: status})
}

// BadRequest writes a 400 envelope.
func BadRequest(w http.ResponseWriter, msg string) { Write(w, http.StatusBadRequest, msg) }

// NotFound writes a 404 envelope.
func NotFound(w http.ResponseWriter, msg string) { Write(w, http.StatusNotFound, msg) }

// Internal writes a 500 envelope with a generic message.
func Internal(w http.ResponseWriter) {
	Write(w, http.StatusInternalServerError, "internal server error")
}

// Unavailable writes a 503 envelope.
func Unavailable(w http.ResponseWriter, msg string) { Write(w, http.StatusServiceUnavailable, msg) }
