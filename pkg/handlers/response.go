package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope is the JSON shape of transport-level failures (wrong method,
// malformed body). Pipeline failures never use it: they travel as an
// error-SQL result inside a 200 QueryResponse.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorResponse writes an ErrorEnvelope with the given status code and
// returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, ErrorEnvelope{
		Error:   errorCode,
		Message: message,
	})
}

// WriteJSON writes data as a JSON response with the given status code and
// returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}
