// Package httpapi is the HTTP surface: route table, middleware chain,
// response envelope, TLS and graceful lifecycle — spec §4.11.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// successEnvelope is the {success:true, ...} wire shape (spec §6).
type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// errorEnvelope is the {success:false, error, message} wire shape.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeSuccess wraps data in the success envelope and writes it as JSON.
func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data})
}

// writeErrorEnvelope writes the error envelope for kind/message at status,
// per spec §6/§7's fixed wire shape.
func writeErrorEnvelope(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorEnvelope{Success: false, Error: kind, Message: message})
}
