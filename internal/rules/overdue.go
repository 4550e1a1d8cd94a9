package rules

import (
	"time"

	"purchaseflow/internal/model"
)

// Deadline returns the explicit due date when set, otherwise createdAt plus
// the maximum turnaround of the request's tier. The tier stored on the record
// is used when present so repeated calls agree with the original decision.
func (e *Engine) Deadline(req *model.PurchaseRequest) time.Time {
	if req.DueDate != nil {
		return *req.DueDate
	}
	tier := req.ApprovalTier
	if !req.HasRoute() {
		tier = e.RouteRequest(req).Tier
	}
	est := Estimate(tier, req.Priority)
	return req.CreatedAt.Add(time.Duration(est.MaxDays) * 24 * time.Hour)
}

// IsOverdue reports whether a non-terminal request has passed its deadline.
func (e *Engine) IsOverdue(req *model.PurchaseRequest, now time.Time) bool {
	if req.Status.IsTerminal() {
		return false
	}
	return now.After(e.Deadline(req))
}
