package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campaign-console/internal/campaign"
	"github.com/ignite/campaign-console/internal/history"
	"github.com/ignite/campaign-console/internal/mailapi"
	"github.com/ignite/campaign-console/internal/pkg/httputil"
	"github.com/ignite/campaign-console/internal/recipients"
)

// Handlers holds the dependencies shared across all HTTP handlers.
type Handlers struct {
	client *mailapi.Client
	coord  *campaign.Coordinator
	rec    *recipients.Reconciler
	store  *history.Store
	cache  *history.Cache
}

// NewHandlers creates the handler set. store and cache are optional.
func NewHandlers(
	client *mailapi.Client,
	coord *campaign.Coordinator,
	rec *recipients.Reconciler,
	store *history.Store,
	cache *history.Cache,
) *Handlers {
	return &Handlers{client: client, coord: coord, rec: rec, store: store, cache: cache}
}

// HealthCheck reports local liveness plus backend reachability.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	backend := "ok"
	if err := h.client.HealthCheck(r.Context()); err != nil {
		backend = "unreachable"
	}
	httputil.OK(w, map[string]string{"status": "ok", "backend": backend})
}

// urlID parses a chi URL parameter as int64; writes a 400 and returns
// false when it is not a number.
func urlID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httputil.BadRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}

// writeBackendError maps backend client failures onto HTTP responses,
// passing backend messages through where they exist.
func writeBackendError(w http.ResponseWriter, err error) {
	var apiErr *mailapi.APIError
	if mailapi.IsNotFound(err) {
		httputil.NotFound(w, "not found")
		return
	}
	if mailapi.IsConflict(err) {
		httputil.Conflict(w, "already exists")
		return
	}
	if errors.As(err, &apiErr) {
		httputil.Error(w, http.StatusBadGateway, apiErr.UserMessage())
		return
	}
	httputil.InternalError(w, err)
}
