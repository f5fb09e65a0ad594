package api

import (
	"net/http"
	"strings"

	"github.com/ignite/campaign-console/internal/mailapi"
	"github.com/ignite/campaign-console/internal/pkg/httputil"
)

func (h *Handlers) GetSenders(w http.ResponseWriter, r *http.Request) {
	senders, err := h.client.GetSenders(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	// Surface eligibility so callers do not have to re-derive it.
	type senderView struct {
		mailapi.Sender
		Eligible bool `json:"eligible"`
	}
	views := make([]senderView, 0, len(senders))
	for _, s := range senders {
		views = append(views, senderView{Sender: s, Eligible: s.Eligible()})
	}
	httputil.OK(w, views)
}

func (h *Handlers) UpdateSenderOutbound(w http.ResponseWriter, r *http.Request) {
	senderID, ok := urlID(w, r, "senderID")
	if !ok {
		return
	}
	var cfg mailapi.OutboundConfig
	if !httputil.Decode(w, r, &cfg) {
		return
	}
	if strings.TrimSpace(cfg.OutboundEmail) == "" {
		httputil.BadRequest(w, "outbound email is required")
		return
	}
	if err := h.client.UpdateSenderOutbound(r.Context(), senderID, cfg); err != nil {
		writeBackendError(w, err)
		return
	}
	httputil.NoContent(w)
}
