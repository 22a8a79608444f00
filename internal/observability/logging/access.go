package logging

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// AccessLog logs one line per request with method, path, status and duration.
func AccessLog(next http.Handler, logger logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		entry := logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      resp.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		if resp.status >= http.StatusInternalServerError {
			entry.Warn("http request")
			return
		}
		entry.Info("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
