package utils

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// RespondJSON sends a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		// Headers are already sent, nothing left but logging
		log.WithError(err).Error("Error encoding JSON response")
	}
}

// RespondError sends a JSON error response and logs the error to the provided logger or stdout.
// If logger is nil, it logs directly.
func RespondError(w http.ResponseWriter, logger *strings.Builder, message string, status int) {
	if logger != nil {
		AddToLogMessage(logger, message)
	} else {
		log.WithField("status", status).Warn(message)
	}
	RespondJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

// LatencyMiddleware logs the duration of each request
func LatencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("[LATENCY]")
	})
}
