package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the API's error envelope, {"error":{"code","message"}}.
// Middleware rejects requests before a handler runs, so it cannot use the
// handler package's error mapping.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]map[string]string{
		"error": {"code": code, "message": message},
	})
}
