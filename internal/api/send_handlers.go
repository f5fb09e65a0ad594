package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/ignite/campaign-console/internal/campaign"
	"github.com/ignite/campaign-console/internal/mailapi"
	"github.com/ignite/campaign-console/internal/pkg/httputil"
	"github.com/ignite/campaign-console/internal/pkg/logger"
)

// sendRequest is the payload for POST /api/campaigns/send.
type sendRequest struct {
	ListID      int64                `json:"list_id"`
	SenderIDs   []int64              `json:"sender_ids"`
	Subject     string               `json:"subject"`
	BodyHTML    string               `json:"body_html"`
	Attachments []mailapi.Attachment `json:"attachments,omitempty"`
}

// SendCampaign drives one full dispatch through the coordinator: draft,
// preconditions, submit, record. The coordinator owns ordering and never
// retries; a failure comes back to the caller for an explicit resubmit.
func (h *Handlers) SendCampaign(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	if st := h.coord.Status().State; st == campaign.StateSending || st == campaign.StateValidating {
		httputil.ErrorCode(w, http.StatusConflict,
			campaign.ErrorCode(campaign.ErrSendInFlight), "a send is already in progress")
		return
	}

	h.coord.StartDraft(req.ListID)
	h.coord.UpdateContent(req.Subject, req.BodyHTML)
	for _, att := range req.Attachments {
		h.coord.AddAttachment(att)
	}

	if req.ListID != 0 {
		count, err := h.client.RecipientCount(r.Context(), req.ListID)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		h.coord.SetListSize(count)
	}

	if len(req.SenderIDs) > 0 {
		all, err := h.client.GetSenders(r.Context())
		if err != nil {
			writeBackendError(w, err)
			return
		}
		byID := make(map[int64]mailapi.Sender, len(all))
		for _, s := range all {
			byID[s.ID] = s
		}
		var selected []mailapi.Sender
		for _, id := range req.SenderIDs {
			if s, ok := byID[id]; ok {
				selected = append(selected, s)
			}
		}
		if len(selected) != len(req.SenderIDs) {
			httputil.BadRequest(w, "unknown sender id")
			return
		}
		h.coord.SelectSenders(selected)
	}

	result, err := h.coord.Submit(r.Context())
	if err != nil {
		h.writeCoordinatorError(w, err)
		return
	}

	h.recordSend(r, req, result)
	httputil.OK(w, result)
}

// recordSend persists the outcome locally when a history store is wired.
func (h *Handlers) recordSend(r *http.Request, req sendRequest, result *mailapi.SendResult) {
	if h.store == nil {
		return
	}
	rec := &mailapi.SendRecord{
		Timestamp: result.Timestamp,
		Subject:   req.Subject,
		ListID:    req.ListID,
		Total:     result.TotalRecipients,
		Sent:      result.Sent,
		Bounced:   result.Bounced,
		Status:    mailapi.SendStatusCompleted,
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if len(req.SenderIDs) > 0 {
		rec.SenderID = req.SenderIDs[0]
	}
	if err := h.store.RecordSend(r.Context(), rec); err != nil {
		logger.Warn("failed to record send locally", "error", err.Error())
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			logger.Warn("failed to invalidate recent-sends cache", "error", err.Error())
		}
	}
}

// CampaignState exposes the coordinator snapshot.
func (h *Handlers) CampaignState(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, h.coord.Status())
}

// UploadAttachment forwards a multipart file to the backend and registers
// the resulting metadata on the current draft.
func (h *Handlers) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	att, err := h.client.UploadAttachment(r.Context(), header.Filename, file)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	h.coord.AddAttachment(*att)
	httputil.Created(w, att)
}

// writeCoordinatorError maps coordinator errors onto HTTP responses with
// stable machine-readable codes.
func (h *Handlers) writeCoordinatorError(w http.ResponseWriter, err error) {
	switch {
	case campaign.IsPrecondition(err):
		httputil.ErrorCode(w, http.StatusUnprocessableEntity, campaign.ErrorCode(err), err.Error())
	case errors.Is(err, campaign.ErrSendInFlight), errors.Is(err, campaign.ErrDraftComplete):
		httputil.ErrorCode(w, http.StatusConflict, campaign.ErrorCode(err), err.Error())
	default:
		// The snapshot carries the sanitized failure message; raw
		// transport errors never reach the caller.
		httputil.Error(w, http.StatusBadGateway, h.coord.Status().Error)
	}
}
