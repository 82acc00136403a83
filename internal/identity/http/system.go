package http

import (
	"net/http"
	"time"

	"github.com/campusnotes/campusnotes/pkg/httpx"
	"github.com/campusnotes/campusnotes/pkg/slogx"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// handleLivez reports process liveness only.
func (r *Router) handleLivez(w http.ResponseWriter, req *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: r.buildVersion,
		Uptime:  time.Since(r.startTime).Round(time.Second).String(),
	})
}

// handleReadyz checks the store and the session backend.
func (r *Router) handleReadyz(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	log := slogx.FromContext(ctx)

	if err := r.store.Ping(ctx); err != nil {
		log.Error("readyz: database unreachable", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "not_ready", "database unreachable")
		return
	}

	if r.redis != nil {
		if err := r.redis.Ping(ctx).Err(); err != nil {
			log.Error("readyz: redis unreachable", "err", err)
			httpx.WriteError(w, http.StatusServiceUnavailable, "not_ready", "session store unreachable")
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: r.buildVersion,
		Uptime:  time.Since(r.startTime).Round(time.Second).String(),
	})
}
