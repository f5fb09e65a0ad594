package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ignite/campaign-console/internal/history"
	"github.com/ignite/campaign-console/internal/mailapi"
	"github.com/ignite/campaign-console/internal/pkg/httputil"
	"github.com/ignite/campaign-console/internal/pkg/logger"
)

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// GetSends returns recent sends, preferring the local store with its
// Redis cache, falling back to the backend when no store is configured.
func (h *Handlers) GetSends(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	if h.store == nil {
		sends, err := h.client.GetSends(r.Context(), limit)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		httputil.OK(w, sends)
		return
	}

	if h.cache != nil {
		if cached, ok, err := h.cache.GetRecent(r.Context()); err == nil && ok {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			httputil.OK(w, cached)
			return
		}
	}

	sends, err := h.store.RecentSends(r.Context(), limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if h.cache != nil {
		if err := h.cache.SetRecent(r.Context(), sends); err != nil {
			logger.Warn("failed to cache recent sends", "error", err.Error())
		}
	}
	httputil.OK(w, sends)
}

// GetSendDetails returns one page of per-recipient rows for a send.
func (h *Handlers) GetSendDetails(w http.ResponseWriter, r *http.Request) {
	sendID, ok := urlID(w, r, "sendID")
	if !ok {
		return
	}
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", history.DefaultPageSize)

	var (
		details *mailapi.SendDetails
		err     error
	)
	if h.store != nil {
		details, err = h.store.SendDetails(r.Context(), sendID, page, pageSize)
		if errors.Is(err, history.ErrNotFound) {
			httputil.NotFound(w, "send not found")
			return
		}
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
	} else {
		details, err = h.client.GetSendDetails(r.Context(), sendID, page, pageSize)
		if err != nil {
			writeBackendError(w, err)
			return
		}
	}
	httputil.OK(w, details)
}

// GetStats serves the dashboard aggregates.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		stats, err := h.store.Stats(r.Context())
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		httputil.OK(w, stats)
		return
	}
	stats, err := h.client.GetStats(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	httputil.OK(w, stats)
}
