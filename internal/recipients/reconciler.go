package recipients

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ignite/campaign-console/internal/mailapi"
	"github.com/ignite/campaign-console/internal/pkg/logger"
)

// ListAPI is the slice of the backend client the reconciler needs.
type ListAPI interface {
	GetMembers(ctx context.Context, listID int64) ([]mailapi.Recipient, error)
	AddMember(ctx context.Context, listID int64, email string) (*mailapi.Recipient, error)
	DeleteMember(ctx context.Context, listID, memberID int64) error
	ImportMembers(ctx context.Context, listID int64, batchID string, emails []string) (*mailapi.ImportSummary, error)
	ValidateDomains(ctx context.Context, listID int64) (*mailapi.ValidationReport, error)
}

// listEntry is the cached local view of one list: its membership, the most
// recent validation report, and a generation counter that rejects stale
// asynchronous responses after the entry has moved on.
type listEntry struct {
	generation uint64
	loaded     bool
	recipients []mailapi.Recipient
	report     *mailapi.ValidationReport
	mutating   bool
}

// Reconciler is the single source of truth for the local view of recipient
// membership, one entry per list. Three mutation paths (manual add, manual
// delete, import) and one read path (validate) all converge on the same
// reconciliation function so the membership cache and the validation report
// can never drift apart: no report detail may reference an address that is
// not in the cached membership.
type Reconciler struct {
	api ListAPI

	mu      sync.Mutex
	entries map[int64]*listEntry
	active  int64
}

// NewReconciler creates a reconciler over the given backend client.
func NewReconciler(api ListAPI) *Reconciler {
	return &Reconciler{
		api:     api,
		entries: make(map[int64]*listEntry),
	}
}

func (r *Reconciler) entryLocked(listID int64) *listEntry {
	e, ok := r.entries[listID]
	if !ok {
		e = &listEntry{}
		r.entries[listID] = e
	}
	return e
}

// Activate marks a list as the one being worked on. Switching invalidates
// the previous list's validation report and bumps the new entry's
// generation so any member fetch still in flight for an older activation
// is discarded when it lands.
func (r *Reconciler) Activate(listID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != 0 && r.active != listID {
		if prev, ok := r.entries[r.active]; ok {
			prev.report = nil
		}
	}
	r.active = listID
	r.entryLocked(listID).generation++
}

// Drop forgets a list entirely, used when the list itself is deleted.
func (r *Reconciler) Drop(listID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, listID)
	if r.active == listID {
		r.active = 0
	}
}

// LoadMembers fetches the authoritative membership and folds it into the
// cache. A response that arrives after the entry's generation has moved on
// is discarded with ErrStaleFetch rather than applied to the wrong view.
func (r *Reconciler) LoadMembers(ctx context.Context, listID int64) ([]mailapi.Recipient, error) {
	r.mu.Lock()
	gen := r.entryLocked(listID).generation
	r.mu.Unlock()

	members, err := r.api.GetMembers(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch list members: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(listID)
	if e.generation != gen {
		return nil, ErrStaleFetch
	}
	e.recipients = members
	e.loaded = true
	r.reconcileReportLocked(e)
	return append([]mailapi.Recipient(nil), e.recipients...), nil
}

// Members returns the cached membership snapshot and whether it is loaded.
func (r *Reconciler) Members(listID int64) ([]mailapi.Recipient, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[listID]
	if !ok || !e.loaded {
		return nil, false
	}
	return append([]mailapi.Recipient(nil), e.recipients...), true
}

// AddOne adds a single address. Syntax and duplicate checks run locally
// first for instant feedback; the backend remains the authority and its
// conflict answer maps to the same ErrAlreadyPresent.
func (r *Reconciler) AddOne(ctx context.Context, listID int64, email string) (*mailapi.Recipient, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !ValidSyntax(email) {
		return nil, ErrInvalidFormat
	}

	r.mu.Lock()
	e := r.entryLocked(listID)
	if e.loaded {
		for _, rec := range e.recipients {
			if strings.EqualFold(rec.Email, email) {
				r.mu.Unlock()
				return nil, ErrAlreadyPresent
			}
		}
	}
	if e.mutating {
		r.mu.Unlock()
		return nil, ErrMutationInFlight
	}
	e.mutating = true
	gen := e.generation
	r.mu.Unlock()

	member, err := r.api.AddMember(ctx, listID, email)

	r.mu.Lock()
	defer r.mu.Unlock()
	e.mutating = false
	if err != nil {
		if mailapi.IsConflict(err) {
			return nil, ErrAlreadyPresent
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	if e.generation == gen && e.loaded {
		// Most-recent-first display order: new members go to the head.
		e.recipients = append([]mailapi.Recipient{*member}, e.recipients...)
	}
	logger.Info("member added", "list_id", listID, "email", email)
	return member, nil
}

// RemoveOne deletes a recipient from the list and, when a validation report
// is active, prunes any detail referencing the same address. A report entry
// about a deleted recipient must never stay displayed as actionable.
func (r *Reconciler) RemoveOne(ctx context.Context, listID, recipientID int64) error {
	r.mu.Lock()
	e := r.entryLocked(listID)
	if e.mutating {
		r.mu.Unlock()
		return ErrMutationInFlight
	}
	e.mutating = true
	r.mu.Unlock()

	err := r.api.DeleteMember(ctx, listID, recipientID)

	r.mu.Lock()
	defer r.mu.Unlock()
	e.mutating = false
	if err != nil && !mailapi.IsNotFound(err) {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	// Gone on the backend either way; drop it locally too.
	removedEmail := ""
	for i, rec := range e.recipients {
		if rec.ID == recipientID {
			removedEmail = rec.Email
			e.recipients = append(e.recipients[:i], e.recipients[i+1:]...)
			break
		}
	}
	if removedEmail != "" {
		r.pruneReportLocked(e, removedEmail)
	}
	return nil
}

// RemoveByEmail removes a recipient identified by address (the validation
// view works in addresses, not ids). If the address is no longer in the
// cache the report entry alone is pruned, acknowledging the removal.
func (r *Reconciler) RemoveByEmail(ctx context.Context, listID int64, email string) error {
	r.mu.Lock()
	e := r.entryLocked(listID)
	var recipientID int64
	for _, rec := range e.recipients {
		if strings.EqualFold(rec.Email, email) {
			recipientID = rec.ID
			break
		}
	}
	if recipientID == 0 {
		r.pruneReportLocked(e, email)
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	return r.RemoveOne(ctx, listID, recipientID)
}

// ImportText parses pasted text and submits the batch. An empty candidate
// sequence fails locally with ErrNoCandidatesFound and never reaches the
// backend. After a successful import the cache is rebuilt from the
// backend's authoritative membership — import is not assumed idempotent
// client-side.
func (r *Reconciler) ImportText(ctx context.Context, listID int64, freeText string) (*mailapi.ImportSummary, error) {
	candidates := ParseCandidates(freeText)
	if len(candidates) == 0 {
		return nil, ErrNoCandidatesFound
	}

	r.mu.Lock()
	e := r.entryLocked(listID)
	if e.mutating {
		r.mu.Unlock()
		return nil, ErrMutationInFlight
	}
	e.mutating = true
	r.mu.Unlock()

	batchID := uuid.New().String()
	summary, err := r.api.ImportMembers(ctx, listID, batchID, candidates)

	r.mu.Lock()
	e.mutating = false
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("import failed: %w", err)
	}
	logger.Info("import batch processed",
		"list_id", listID,
		"batch_id", batchID,
		"detected", summary.TotalDetected,
		"imported", summary.Imported)

	if err := r.reconcileAfterImport(ctx, listID); err != nil {
		// The import itself succeeded; the cache is simply not trusted
		// until the next successful load.
		logger.Warn("post-import refetch failed, cache invalidated",
			"list_id", listID, "error", err.Error())
	}
	return summary, nil
}

// reconcileAfterImport replaces the cache with the post-import membership.
func (r *Reconciler) reconcileAfterImport(ctx context.Context, listID int64) error {
	members, err := r.api.GetMembers(ctx, listID)

	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(listID)
	e.generation++
	if err != nil {
		e.loaded = false
		e.recipients = nil
		return err
	}
	e.recipients = members
	e.loaded = true
	r.reconcileReportLocked(e)
	return nil
}

// PreviewImport classifies pasted text against the cached membership
// without calling the backend.
func (r *Reconciler) PreviewImport(listID int64, freeText string) (*mailapi.ImportSummary, error) {
	candidates := ParseCandidates(freeText)
	if len(candidates) == 0 {
		return nil, ErrNoCandidatesFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	existing := make(map[string]bool)
	if e, ok := r.entries[listID]; ok && e.loaded {
		for _, rec := range e.recipients {
			existing[strings.ToLower(rec.Email)] = true
		}
	}
	summary := Classify(candidates, existing)
	return &summary, nil
}

// pruneReportLocked removes every report detail referencing the address and
// adjusts the counters: total always, invalid only when the pruned detail
// was invalid.
func (r *Reconciler) pruneReportLocked(e *listEntry, email string) {
	if e.report == nil {
		return
	}
	kept := e.report.Details[:0]
	for _, d := range e.report.Details {
		if strings.EqualFold(d.Email, email) {
			if e.report.Total > 0 {
				e.report.Total--
			}
			if !d.HasMx && e.report.Invalid > 0 {
				e.report.Invalid--
			}
			continue
		}
		kept = append(kept, d)
	}
	e.report.Details = kept
}

// reconcileReportLocked enforces the report/membership invariant after any
// change to either side: details referencing addresses that are no longer
// cached are pruned. This is the single reconciliation point for all
// mutation paths.
func (r *Reconciler) reconcileReportLocked(e *listEntry) {
	if e.report == nil || !e.loaded {
		return
	}
	cached := make(map[string]bool, len(e.recipients))
	for _, rec := range e.recipients {
		cached[strings.ToLower(rec.Email)] = true
	}
	var orphans []string
	for _, d := range e.report.Details {
		if !cached[strings.ToLower(d.Email)] {
			orphans = append(orphans, d.Email)
		}
	}
	for _, email := range orphans {
		r.pruneReportLocked(e, email)
	}
}
