package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/agbru/fxtree/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the id assigned to the request by requestIDMiddleware, or
// "" outside of it.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// WithRateLimiter sets a custom rate limiter for the server.
//
// Parameters:
//   - rl: The rate limiter to use.
//
// Returns:
//   - Option: A functional option that configures the server's rate limiter.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) {
		s.rateLimiter = rl
	}
}

// WithSecurityConfig sets a custom security configuration for the server.
func WithSecurityConfig(config SecurityConfig) Option {
	return func(s *Server) {
		s.securityConfig = config
	}
}

// WithMaxBatchSize sets the maximum number of inputs accepted by /reduce.
func WithMaxBatchSize(n int) Option {
	return func(s *Server) {
		s.securityConfig.MaxBatchSize = n
	}
}

// requestIDMiddleware assigns a request id, taken from the X-Request-ID
// header when the client sends a valid UUID and generated otherwise, and
// echoes it in the response.
func (s *Server) requestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	}
}

// observeMiddleware logs each request with its id, status and duration and
// records it in the HTTP metrics.
//
// Parameters:
//   - next: The next handler in the chain.
//
// Returns:
//   - http.HandlerFunc: A new handler with logging and metrics.
func (s *Server) observeMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.metrics.Begin()

		next(rec, r)

		duration := time.Since(start)
		s.metrics.End(r.URL.Path, rec.status, duration.Seconds())
		s.logger.Info("request completed",
			logging.String("request_id", RequestID(r.Context())),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("remote", s.rateLimiter.ClientIP(r)),
			logging.Int("status", rec.status),
			logging.Duration("duration", duration),
		)
	}
}
