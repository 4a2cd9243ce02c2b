package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeMessage sends a {"message": ...} JSON response.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeValidationErrors sends the {"error_messages": [...]} shape the
// admin UI consumes. Validation failures are a normal outcome, not a
// server fault, but they still carry a 422 status.
func writeValidationErrors(w http.ResponseWriter, messages []string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error_messages": messages,
	})
}

// readJSON decodes the request body into the given destination.
func readJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
