// Package httputil provides shared HTTP utilities for consistent response handling.
//
// This package exposes only WriteJSON and WriteNoContent; it has no
// convenience wrappers such as WriteBadRequest or WriteNotFound. Its one
// caller in this module is pkg/dispatch's WriteError, which renders
// RouteNotFoundError bodies through WriteJSON.
package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
