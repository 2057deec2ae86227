package gateway

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Counter tracks in-flight gateway requests. It is injected into the gateway
// rather than held as package state so tests can observe it in isolation.
type Counter struct {
	pending atomic.Int64
}

// NewCounter creates a request counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Add records the start of a request.
func (c *Counter) Add() {
	c.pending.Add(1)
}

// Done records the completion of a request.
func (c *Counter) Done() {
	c.pending.Add(-1)
}

// Pending returns the number of requests currently in flight.
func (c *Counter) Pending() int64 {
	return c.pending.Load()
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the underlying writer so SSE streaming survives the wrapper.
func (r *statusRecorder) Flush() {
	if f, canFlush := r.ResponseWriter.(http.Flusher); canFlush {
		f.Flush()
	}
}

// RequestLogger logs each request's method, path, status and duration.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"duration", time.Since(start),
			)
		})
	}
}

// Recover converts handler panics into a 500 envelope so no code path escapes
// the uniform response contract.
func Recover(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
					fail(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// InFlight tracks request concurrency on the given counter.
func InFlight(counter *Counter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			counter.Add()
			defer counter.Done()

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects requests beyond the configured rate with a 429 envelope.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				fail(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
