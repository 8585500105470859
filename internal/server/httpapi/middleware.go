package httpapi

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/logm8/logmate/internal/common"
	"github.com/logm8/logmate/internal/logging"
	"github.com/logm8/logmate/internal/server/auth"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = common.RequestIDHeaderName

// RequestID takes the caller's X-Request-Id or generates one, and echoes it
// back on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// GetRequestID returns the id stored by RequestID, or "".
func GetRequestID(r *http.Request) string {
	return logging.RequestIDFrom(r.Context())
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				a.logger.Error(r.Context(), "panic recovered", "panic", rec, "stack", string(debug.Stack()))
				writeProblem(w, http.StatusInternalServerError, "Internal Server Error",
					"unexpected server error (see logs by reqid)", map[string]any{"reqid": GetRequestID(r)})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (a *API) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		a.logger.Info(r.Context(), "http request",
			"method", r.Method,
			"uri", r.URL.Path,
			"status", sw.status,
			"bytes", sw.bytes,
			"dur", time.Since(start).String(),
			"ip", r.RemoteAddr,
			"ua", r.UserAgent(),
		)
	})
}

// adminAuth admits requests bearing an admin JWT signed with secret.
func (a *API) adminAuth(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const p = "Bearer "
			h := r.Header.Get(common.AuthorizationHeaderName)
			if !strings.HasPrefix(h, p) {
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token", nil)
				return
			}
			if _, err := auth.RequireRole(strings.TrimPrefix(h, p), []byte(secret), auth.RoleAdmin); err != nil {
				a.logger.Warn(r.Context(), "admin auth rejected", "error", err)
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
