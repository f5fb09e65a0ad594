package api

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/ignite/campaign-console/internal/pkg/httputil"
	"github.com/ignite/campaign-console/internal/recipients"
)

func (h *Handlers) GetLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.client.GetLists(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	// The backend returns creation order; the picker shows names.
	sort.Slice(lists, func(i, j int) bool {
		return strings.ToLower(lists[i].Name) < strings.ToLower(lists[j].Name)
	})
	httputil.OK(w, lists)
}

func (h *Handlers) CreateList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httputil.BadRequest(w, "list name is required")
		return
	}
	list, err := h.client.CreateList(r.Context(), req.Name)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	httputil.Created(w, list)
}

func (h *Handlers) DeleteList(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listID")
	if !ok {
		return
	}
	if err := h.client.DeleteList(r.Context(), listID); err != nil {
		writeBackendError(w, err)
		return
	}
	h.rec.Drop(listID)
	httputil.NoContent(w)
}

func (h *Handlers) RecipientCount(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listID")
	if !ok {
		return
	}
	count, err := h.client.RecipientCount(r.Context(), listID)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	h.coord.SetListSize(count)
	httputil.OK(w, map[string]int{"count": count})
}

func (h *Handlers) GetMembers(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listID")
	if !ok {
		return
	}
	h.rec.Activate(listID)
	members, err := h.rec.LoadMembers(r.Context(), listID)
	if err != nil {
		if errors.Is(err, recipients.ErrStaleFetch) {
			// Another activation superseded this one; the newer fetch
			// owns the view now.
			httputil.OK(w, []struct{}{})
			return
		}
		writeBackendError(w, err)
		return
	}
	httputil.OK(w, members)
}

func (h *Handlers) AddMember(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listID")
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	member, err := h.rec.AddOne(r.Context(), listID, req.Email)
	if err != nil {
		writeReconcilerError(w, err)
		return
	}
	httputil.Created(w, member)
}

func (h *Handlers) DeleteMember(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listID")
	if !ok {
		return
	}
	memberID, ok := urlID(w, r, "memberID")
	if !ok {
		return
	}
	if err := h.rec.RemoveOne(r.Context(), listID, memberID); err != nil {
		writeReconcilerError(w, err)
		return
	}
	httputil.NoContent(w)
}

// DeleteMemberByEmail serves the validation report's remove action, which
// identifies recipients by address.
func (h *Handlers) DeleteMemberByEmail(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listID")
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httputil.BadRequest(w, "email is required")
		return
	}
	if err := h.rec.RemoveByEmail(r.Context(), listID, req.Email); err != nil {
		writeReconcilerError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) ImportMembers(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listID")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	summary, err := h.rec.ImportText(r.Context(), listID, req.Text)
	if err != nil {
		writeReconcilerError(w, err)
		return
	}
	httputil.OK(w, summary)
}

func (h *Handlers) PreviewImport(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listID")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	summary, err := h.rec.PreviewImport(listID, req.Text)
	if err != nil {
		writeReconcilerError(w, err)
		return
	}
	httputil.OK(w, summary)
}

func (h *Handlers) ValidateDomains(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listID")
	if !ok {
		return
	}
	report, err := h.rec.Validate(r.Context(), listID)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	httputil.OK(w, report)
}

func (h *Handlers) GetValidationReport(w http.ResponseWriter, r *http.Request) {
	listID, ok := urlID(w, r, "listID")
	if !ok {
		return
	}
	report := h.rec.Report(listID)
	if report == nil {
		httputil.NotFound(w, "no validation report for this list")
		return
	}
	httputil.OK(w, report)
}

// writeReconcilerError maps reconciler sentinels onto HTTP responses;
// anything else falls through to the backend mapping.
func writeReconcilerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recipients.ErrInvalidFormat):
		httputil.BadRequest(w, "invalid email address")
	case errors.Is(err, recipients.ErrAlreadyPresent):
		httputil.Conflict(w, "address is already on the list")
	case errors.Is(err, recipients.ErrNoCandidatesFound):
		httputil.BadRequest(w, "no email addresses found in the pasted text")
	case errors.Is(err, recipients.ErrMutationInFlight):
		httputil.Conflict(w, "another change to this list is still in progress")
	case errors.Is(err, recipients.ErrStaleFetch):
		httputil.Conflict(w, "the list view changed while loading")
	default:
		writeBackendError(w, err)
	}
}
