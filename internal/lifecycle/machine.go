// Package lifecycle owns every status change of a purchase request.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"purchaseflow/internal/model"
	"purchaseflow/internal/rules"
)

// ErrIllegalTransition is returned for a transition the state machine does
// not allow from the current status (for example approving a PENDING request).
// Terminal signals on an already terminal request are not illegal; they are
// no-ops.
var ErrIllegalTransition = errors.New("illegal status transition")

// SystemActor records changes made without a human.
const (
	SystemActor       = "SYSTEM"
	AutoApprovalActor = "SYSTEM_AUTO_APPROVAL"
)

// Signal is an approval or rejection event reported by the orchestration runtime.
type Signal struct {
	BusinessKey string     `json:"businessKey" binding:"required"`
	Actor       string     `json:"actor" binding:"required"`
	Comments    string     `json:"comments"`
	CompletedAt *time.Time `json:"completedAt"`
}

// Outcome describes what a transition did. Applied is false for no-ops.
type Outcome struct {
	Applied bool
	From    model.Status
	To      model.Status
	Note    string
}

// Machine applies guarded transitions to a single request record. It does not
// synchronize; callers hold the per-key lock while using it.
type Machine struct {
	req *model.PurchaseRequest
	now func() time.Time
}

// New wraps req. A nil clock means time.Now.
func New(req *model.PurchaseRequest, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{req: req, now: now}
}

// Request exposes the wrapped record for persistence.
func (m *Machine) Request() *model.PurchaseRequest { return m.req }

func (m *Machine) noop(note string) Outcome {
	return Outcome{From: m.req.Status, To: m.req.Status, Note: note}
}

func (m *Machine) illegal(action string) (Outcome, error) {
	return m.noop(""), fmt.Errorf("%w: cannot %s request %s in status %s",
		ErrIllegalTransition, action, m.req.BusinessKey, m.req.Status)
}

// Begin moves PENDING -> IN_APPROVAL once the orchestration runtime starts
// evaluating the request. It assigns the business key when absent and stores
// the routing decision.
func (m *Machine) Begin(route rules.RouteResult, keys model.KeyGenerator) (Outcome, error) {
	switch {
	case m.req.Status == model.StatusInApproval:
		return m.noop("already in approval"), nil
	case m.req.Status.IsTerminal():
		return m.noop("already " + string(m.req.Status)), nil
	case m.req.Status != model.StatusPending:
		return m.illegal("begin approval of")
	}

	m.req.AssignBusinessKey(keys)
	ApplyRoute(m.req, route)
	return m.move(model.StatusInApproval), nil
}

// Approve moves IN_APPROVAL -> APPROVED.
func (m *Machine) Approve(sig Signal) (Outcome, error) {
	if out, done, err := m.guardTerminal("approve"); done {
		return out, err
	}
	m.req.ApprovedBy = strings.TrimSpace(sig.Actor)
	if sig.Comments != "" {
		m.req.Comments = sig.Comments
	}
	return m.finish(model.StatusApproved, sig.CompletedAt), nil
}

// Reject moves IN_APPROVAL -> REJECTED. The rejection reason is the signal comment.
func (m *Machine) Reject(sig Signal) (Outcome, error) {
	if out, done, err := m.guardTerminal("reject"); done {
		return out, err
	}
	m.req.ApprovedBy = strings.TrimSpace(sig.Actor)
	m.req.RejectionReason = sig.Comments
	return m.finish(model.StatusRejected, sig.CompletedAt), nil
}

// Cancel is the administrative override from any non-terminal status.
func (m *Machine) Cancel(actor, reason string) (Outcome, error) {
	if m.req.Status.IsTerminal() {
		return m.noop("already " + string(m.req.Status)), nil
	}
	m.req.ApprovedBy = strings.TrimSpace(actor)
	m.req.Comments = reason
	return m.finish(model.StatusCancelled, nil), nil
}

// Remind counts one reminder. Terminal requests are left untouched.
func (m *Machine) Remind() Outcome {
	if m.req.Status.IsTerminal() {
		return m.noop("no reminders once " + string(m.req.Status))
	}
	m.req.ReminderCount++
	return Outcome{Applied: true, From: m.req.Status, To: m.req.Status, Note: fmt.Sprintf("reminder #%d", m.req.ReminderCount)}
}

// guardTerminal handles the two cases shared by approve and reject: a request
// that already finished (no-op) and one that never entered approval (illegal).
func (m *Machine) guardTerminal(action string) (Outcome, bool, error) {
	if m.req.Status.IsTerminal() {
		return m.noop("already " + string(m.req.Status)), true, nil
	}
	if m.req.Status != model.StatusInApproval {
		out, err := m.illegal(action)
		return out, true, err
	}
	return Outcome{}, false, nil
}

func (m *Machine) finish(to model.Status, at *time.Time) Outcome {
	end := m.now()
	// a completion time before creation is a runtime clock error
	if at != nil && !at.IsZero() && !at.Before(m.req.CreatedAt) {
		end = *at
	}
	m.req.ApprovedAt = &end
	if !m.req.CreatedAt.IsZero() {
		hours := max(0, int(end.Sub(m.req.CreatedAt).Hours()))
		m.req.ProcessingTimeHours = &hours
	}
	return m.move(to)
}

func (m *Machine) move(to model.Status) Outcome {
	from := m.req.Status
	m.req.Status = to
	return Outcome{Applied: true, From: from, To: to}
}

// ApplyRoute copies a routing decision onto the record.
func ApplyRoute(req *model.PurchaseRequest, route rules.RouteResult) {
	req.ApprovalTier = route.Tier
	req.RouteReason = route.Reason
	req.AutoEligible = route.AutoEligible
	req.UrgentEscalation = route.UrgentEscalation
	req.HighValue = route.HighValue
	req.Strategic = route.Strategic
}
