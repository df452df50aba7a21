package handler

import "net/http"

// HandleHealthCheck reports liveness.
//
// HTTP: GET /health-check → 200 {message}
func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Server up and running"})
}
