package recipients

import (
	"context"
	"fmt"

	"github.com/ignite/campaign-console/internal/mailapi"
	"github.com/ignite/campaign-console/internal/pkg/logger"
)

// Validate asks the backend to check every address on the list for a
// resolvable mail domain and stores the resulting report on the entry. The
// report replaces any previous one for the list; counters come from the
// backend verbatim and are only ever adjusted downward by local removals.
func (r *Reconciler) Validate(ctx context.Context, listID int64) (*mailapi.ValidationReport, error) {
	report, err := r.api.ValidateDomains(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("domain validation failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(listID)
	e.report = report
	r.reconcileReportLocked(e)
	logger.Info("validation report stored",
		"list_id", listID,
		"total", report.Total,
		"invalid", report.Invalid)
	return r.reportSnapshotLocked(e), nil
}

// Report returns the current validation report for the list, or nil when
// none is active.
func (r *Reconciler) Report(listID int64) *mailapi.ValidationReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[listID]
	if !ok {
		return nil
	}
	return r.reportSnapshotLocked(e)
}

func (r *Reconciler) reportSnapshotLocked(e *listEntry) *mailapi.ValidationReport {
	if e.report == nil {
		return nil
	}
	out := *e.report
	out.Details = append([]mailapi.ValidationDetail(nil), e.report.Details...)
	return &out
}

// InvalidDetails projects the report down to the addresses whose domain
// had no MX record, the ones worth acting on.
func InvalidDetails(report *mailapi.ValidationReport) []mailapi.ValidationDetail {
	if report == nil {
		return nil
	}
	var out []mailapi.ValidationDetail
	for _, d := range report.Details {
		if !d.HasMx {
			out = append(out, d)
		}
	}
	return out
}
