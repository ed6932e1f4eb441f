package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
	"github.com/zjoart/go-paystack-logistics/pkg/utils"
)

const requestIDHeader = "X-Request-ID"

// LoggingMiddleware tags each request with an id (reusing the caller's
// X-Request-ID when present) and logs it once the handler returns.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), utils.RequestIDKey, requestID)

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r.WithContext(ctx))

		fields := logger.Fields{
			logger.RequestIDKey: requestID,
			"method":            r.Method,
			"path":              r.URL.Path,
			"status":            rw.status,
			"duration":          time.Since(start).String(),
			"remote":            r.RemoteAddr,
		}
		if rw.status >= http.StatusInternalServerError || rw.status == http.StatusMultiStatus {
			logger.Warn("Request completed", fields)
			return
		}
		logger.Info("Request completed", fields)
	})
}

// RequestID returns the id LoggingMiddleware assigned to ctx's request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(utils.RequestIDKey).(string)
	return id
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
