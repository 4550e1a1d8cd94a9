package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"purchaseflow/internal/lifecycle"
	"purchaseflow/internal/model"
	"purchaseflow/internal/rules"
)

// --- DTOs ---

type ReminderResult struct {
	BusinessKey   string `json:"business_key"`
	Applied       bool   `json:"applied"`
	ReminderCount int    `json:"reminder_count"`
	Recipient     string `json:"recipient,omitempty"`
	Note          string `json:"note,omitempty"`
}

type SweepResult struct {
	Open     int `json:"open"`
	Overdue  int `json:"overdue"`
	Reminded int `json:"reminded"`
	Failed   int `json:"failed"`
}

// --- Interface ---

type ReminderService interface {
	// Remind counts one reminder and queues the reminder message. Finished
	// requests are left untouched.
	Remind(ctx context.Context, dto ReminderDTO) (ReminderResult, error)
	// Sweep reminds the approver of every overdue open request.
	Sweep(ctx context.Context) (SweepResult, error)
}

type reminderService struct {
	deps Deps
	tr   *transitioner
}

func NewReminderService(deps Deps) ReminderService {
	tr := deps.transitioner()
	deps.Now = tr.now
	return &reminderService{deps: deps, tr: tr}
}

// --- Implementation ---

func (s *reminderService) Remind(ctx context.Context, dto ReminderDTO) (ReminderResult, error) {
	key := strings.TrimSpace(dto.RequestID)
	var sent model.Notification

	req, out, err := s.tr.run(ctx, transition{
		key:    key,
		actor:  lifecycle.SystemActor,
		action: model.ActionSendReminder,
		details: map[string]any{
			"assignee": dto.AssigneeContact,
			"task":     dto.CurrentTaskName,
		},
		apply: func(m *lifecycle.Machine) (lifecycle.Outcome, error) {
			return m.Remind(), nil
		},
		notify: func(r *model.PurchaseRequest, at time.Time) []model.Notification {
			sent = reminderNote(r, s.complete(dto, r), at)
			return []model.Notification{sent}
		},
	})
	if err != nil {
		return ReminderResult{}, err
	}
	if out.Applied {
		s.deps.Metrics.Reminder()
	}

	return ReminderResult{
		BusinessKey:   req.BusinessKey,
		Applied:       out.Applied,
		ReminderCount: req.ReminderCount,
		Recipient:     sent.Recipient,
		Note:          out.Note,
	}, nil
}

// complete fills the fields a caller left out from the stored request.
func (s *reminderService) complete(dto ReminderDTO, req *model.PurchaseRequest) ReminderDTO {
	if strings.TrimSpace(dto.AssigneeContact) == "" {
		dto.AssigneeContact = s.deps.Contacts.For(req.ApprovalTier)
		if dto.AssigneeContact == "" {
			dto.AssigneeContact = s.deps.Contacts.Fallback
		}
	}
	if dto.CurrentTaskName == "" {
		dto.CurrentTaskName = rules.TaskName(req.ApprovalTier)
	}
	if dto.Amount == 0 {
		dto.Amount = req.TotalAmount.InexactFloat64()
	}
	if dto.Description == "" {
		dto.Description = fmt.Sprintf("%s - %s", req.Category, req.Priority)
	}
	return dto
}

func (s *reminderService) Sweep(ctx context.Context) (SweepResult, error) {
	open, err := s.deps.Requests.ListOpen(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to list open purchase requests: %w", err)
	}

	now := s.deps.Now()
	res := SweepResult{Open: len(open)}
	for i := range open {
		req := &open[i]
		if !s.deps.Engine.IsOverdue(req, now) {
			continue
		}
		res.Overdue++

		out, err := s.Remind(ctx, ReminderDTO{RequestID: req.BusinessKey})
		if err != nil {
			res.Failed++
			log.Printf("reminder sweep: %s: %v", req.BusinessKey, err)
			continue
		}
		if out.Applied {
			res.Reminded++
		}
	}
	s.deps.Metrics.SetOverdue(res.Overdue)
	return res, nil
}
