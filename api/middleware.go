package api

import (
	"net/http"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging puts a request scoped logger in the context and logs each request once it is served
func withLogging(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLogger := logger.With().
			Str("request_id", xid.New().String()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(reqLogger.WithContext(r.Context())))

		ev := reqLogger.Info()
		if rec.status >= http.StatusInternalServerError {
			ev = reqLogger.Error()
		}
		ev.Int("status", rec.status).Dur("duration", time.Since(start)).Msg("request")
	})
}
