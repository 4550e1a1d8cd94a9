package service

import (
	"context"
	"strings"
	"time"

	"purchaseflow/internal/lifecycle"
	"purchaseflow/internal/model"
)

// --- DTOs ---

// SignalResult reports the effect of an approval signal. A signal for a
// request that already finished has Applied=false and is not an error.
type SignalResult struct {
	BusinessKey string       `json:"business_key"`
	Applied     bool         `json:"applied"`
	Status      model.Status `json:"status"`
	Note        string       `json:"note,omitempty"`
}

// --- Interface ---

// SignalService applies the approved/rejected events reported by the
// orchestration runtime.
type SignalService interface {
	Approve(ctx context.Context, sig lifecycle.Signal) (SignalResult, error)
	Reject(ctx context.Context, sig lifecycle.Signal) (SignalResult, error)
}

type signalService struct {
	tr *transitioner
}

func NewSignalService(deps Deps) SignalService {
	return &signalService{tr: deps.transitioner()}
}

// --- Implementation ---

func (s *signalService) Approve(ctx context.Context, sig lifecycle.Signal) (SignalResult, error) {
	return s.signal(ctx, sig, model.ActionApproveRequest, func(m *lifecycle.Machine) (lifecycle.Outcome, error) {
		return m.Approve(sig)
	})
}

func (s *signalService) Reject(ctx context.Context, sig lifecycle.Signal) (SignalResult, error) {
	return s.signal(ctx, sig, model.ActionRejectRequest, func(m *lifecycle.Machine) (lifecycle.Outcome, error) {
		return m.Reject(sig)
	})
}

func (s *signalService) signal(ctx context.Context, sig lifecycle.Signal, action string, apply func(*lifecycle.Machine) (lifecycle.Outcome, error)) (SignalResult, error) {
	key := strings.TrimSpace(sig.BusinessKey)
	details := map[string]any{"comments": sig.Comments}
	if sig.CompletedAt != nil {
		details["completed_at"] = sig.CompletedAt.Format(time.RFC3339)
	}

	req, out, err := s.tr.run(ctx, transition{
		key:        key,
		actor:      strings.TrimSpace(sig.Actor),
		action:     action,
		reportNoop: true,
		details:    details,
		apply:      apply,
		notify: func(r *model.PurchaseRequest, at time.Time) []model.Notification {
			return []model.Notification{finalDecisionNote(r, at)}
		},
	})
	if err != nil {
		return SignalResult{}, err
	}

	return SignalResult{
		BusinessKey: req.BusinessKey,
		Applied:     out.Applied,
		Status:      req.Status,
		Note:        out.Note,
	}, nil
}
