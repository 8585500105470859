package httpapi

import (
	"context"
	"net/http"
	"sort"
	"time"
)

const readyTimeout = 2 * time.Second

func (a *API) healthz(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok\n")
}

func (a *API) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(a.ready))
	for name := range a.ready {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := a.ready[name](ctx); err != nil {
			a.logger.Warn(ctx, "readiness check failed", "check", name, "error", err)
			writeText(w, http.StatusServiceUnavailable, name+" unreachable\n")
			return
		}
	}
	writeText(w, http.StatusOK, "ok\n")
}
