package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"purchaseflow/internal/lifecycle"
	"purchaseflow/internal/metrics"
	"purchaseflow/internal/model"
	"purchaseflow/internal/repository"
	"purchaseflow/internal/rules"
	"purchaseflow/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type PurchaseRequestFilter struct {
	Status         string
	Department     string
	RequesterEmail string
	Page           int
	Limit          int
}

type PurchaseRequestResponse struct {
	model.PurchaseRequest
	TierDisplayName string             `json:"tier_display_name"`
	Estimate        rules.TimeEstimate `json:"estimate"`
	Deadline        string             `json:"deadline"`
	Overdue         bool               `json:"overdue"`
}

type SubmitResult struct {
	Request  PurchaseRequestResponse `json:"request"`
	Route    rules.RouteResult       `json:"route"`
	Warnings []string                `json:"warnings"`
}

type CancelRequestDTO struct {
	Reason string `json:"reason"`
}

// --- Interface ---

type PurchaseService interface {
	Submit(ctx context.Context, dto PurchaseRequestDTO) (SubmitResult, error)
	Get(ctx context.Context, businessKey string) (PurchaseRequestResponse, error)
	List(ctx context.Context, filter PurchaseRequestFilter) ([]PurchaseRequestResponse, int64, error)
	Cancel(ctx context.Context, businessKey, actor, reason string) (PurchaseRequestResponse, error)
}

// Deps are the collaborators shared by the lifecycle services.
type Deps struct {
	TxManager repository.TransactionManager
	Requests  repository.PurchaseRequestRepository
	Audits    repository.AuditRepository
	Outbox    repository.NotificationRepository
	Locker    lifecycle.Locker
	Engine    *rules.Engine
	Validator *rules.Validator
	Contacts  rules.Contacts
	Keys      model.KeyGenerator
	Starter   workflow.Starter
	Metrics   *metrics.Metrics
	Publisher Publisher
	Now       func() time.Time
	Lenient   bool
}

func (d Deps) transitioner() *transitioner {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &transitioner{
		txManager: d.TxManager,
		requests:  d.Requests,
		audits:    d.Audits,
		outbox:    d.Outbox,
		locker:    d.Locker,
		metrics:   d.Metrics,
		publisher: d.Publisher,
		now:       now,
	}
}

type purchaseService struct {
	deps   Deps
	intake Intake
	tr     *transitioner
}

func NewPurchaseService(deps Deps) PurchaseService {
	tr := deps.transitioner()
	deps.Now = tr.now
	return &purchaseService{deps: deps, intake: Intake{Lenient: deps.Lenient}, tr: tr}
}

// --- Implementation ---

// Submit validates, stores, routes and starts approval of a new request.
// AUTO tier requests are approved on the spot.
func (s *purchaseService) Submit(ctx context.Context, dto PurchaseRequestDTO) (SubmitResult, error) {
	now := s.deps.Now()

	req, parsed := s.intake.Build(dto)
	verdict := parsed.Merge(s.deps.Validator.Validate(req, now))
	if !verdict.Valid {
		return SubmitResult{}, &ValidationError{Result: verdict}
	}

	req.ID = uuid.New()
	req.AssignBusinessKey(s.deps.Keys)
	req.CreatedAt = now
	route := s.deps.Engine.Route(rules.InputFor(req))

	err := s.deps.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.deps.Requests.Create(txCtx, req); err != nil {
			return fmt.Errorf("failed to create purchase request: %w", err)
		}
		details, _ := json.Marshal(map[string]any{
			"amount":   req.FormattedAmount(),
			"category": req.Category,
			"priority": req.Priority,
			"warnings": verdict.Warnings,
		})
		entry := model.AuditLog{
			ID:          uuid.New(),
			Actor:       req.RequesterEmail,
			Action:      model.ActionSubmitRequest,
			BusinessKey: req.BusinessKey,
			ToStatus:    model.StatusPending,
			Details:     string(details),
			CreatedAt:   now,
		}
		if err := s.deps.Audits.Log(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}
	s.deps.Metrics.Routed(string(route.Tier))

	instanceID, err := s.deps.Starter.Start(ctx, req.BusinessKey, workflow.VariablesFor(req))
	if err != nil {
		log.Printf("purchase request %s stored but process start failed: %v", req.BusinessKey, err)
		return SubmitResult{}, fmt.Errorf("%w for %s: %v", ErrWorkflowUnavailable, req.BusinessKey, err)
	}

	current, _, err := s.tr.run(ctx, transition{
		key:    req.BusinessKey,
		actor:  lifecycle.SystemActor,
		action: model.ActionBeginApproval,
		details: map[string]any{
			"tier":                route.Tier,
			"rule":                route.Rule,
			"reason":              route.Reason,
			"process_instance_id": instanceID,
		},
		apply: func(m *lifecycle.Machine) (lifecycle.Outcome, error) {
			m.Request().ProcessInstanceID = instanceID
			return m.Begin(route, s.deps.Keys)
		},
		notify: func(r *model.PurchaseRequest, at time.Time) []model.Notification {
			return []model.Notification{approvalRequestedNote(r, s.deps.Contacts.For(r.ApprovalTier), at)}
		},
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if route.Tier == model.TierAuto {
		current, _, err = s.tr.run(ctx, transition{
			key:     req.BusinessKey,
			actor:   lifecycle.AutoApprovalActor,
			action:  model.ActionApproveRequest,
			details: map[string]any{"reason": route.Reason},
			apply: func(m *lifecycle.Machine) (lifecycle.Outcome, error) {
				return m.Approve(lifecycle.Signal{
					BusinessKey: req.BusinessKey,
					Actor:       lifecycle.AutoApprovalActor,
					Comments:    route.Reason,
				})
			},
			notify: func(r *model.PurchaseRequest, at time.Time) []model.Notification {
				return []model.Notification{finalDecisionNote(r, at)}
			},
		})
		if err != nil {
			return SubmitResult{}, err
		}
	}

	return SubmitResult{
		Request:  s.toResponse(current, now),
		Route:    route,
		Warnings: verdict.Warnings,
	}, nil
}

func (s *purchaseService) Get(ctx context.Context, businessKey string) (PurchaseRequestResponse, error) {
	req, err := s.deps.Requests.FindByBusinessKey(ctx, businessKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PurchaseRequestResponse{}, fmt.Errorf("%w: %s", ErrNotFound, businessKey)
	}
	if err != nil {
		return PurchaseRequestResponse{}, fmt.Errorf("failed to load purchase request: %w", err)
	}
	return s.toResponse(req, s.deps.Now()), nil
}

func (s *purchaseService) List(ctx context.Context, filter PurchaseRequestFilter) ([]PurchaseRequestResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	requests, total, err := s.deps.Requests.List(ctx, repository.PurchaseRequestFilter{
		Status:         model.Status(filter.Status),
		Department:     filter.Department,
		RequesterEmail: filter.RequesterEmail,
		Page:           filter.Page,
		Limit:          filter.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchase requests: %w", err)
	}

	now := s.deps.Now()
	result := make([]PurchaseRequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, s.toResponse(&requests[i], now))
	}
	return result, total, nil
}

// Cancel is the administrative override. Cancelling a finished request is a no-op.
func (s *purchaseService) Cancel(ctx context.Context, businessKey, actor, reason string) (PurchaseRequestResponse, error) {
	req, _, err := s.tr.run(ctx, transition{
		key:     businessKey,
		actor:   actor,
		action:  model.ActionCancelRequest,
		details: map[string]any{"reason": reason},
		apply: func(m *lifecycle.Machine) (lifecycle.Outcome, error) {
			return m.Cancel(actor, reason)
		},
		notify: func(r *model.PurchaseRequest, at time.Time) []model.Notification {
			return []model.Notification{finalDecisionNote(r, at)}
		},
	})
	if err != nil {
		return PurchaseRequestResponse{}, err
	}
	return s.toResponse(req, s.deps.Now()), nil
}

// --- Helpers ---

func (s *purchaseService) toResponse(req *model.PurchaseRequest, now time.Time) PurchaseRequestResponse {
	tier := req.ApprovalTier
	if !req.HasRoute() {
		tier = s.deps.Engine.RouteRequest(req).Tier
	}
	return PurchaseRequestResponse{
		PurchaseRequest: *req,
		TierDisplayName: tier.DisplayName(),
		Estimate:        rules.Estimate(tier, req.Priority),
		Deadline:        s.deps.Engine.Deadline(req).Format(time.RFC3339),
		Overdue:         s.deps.Engine.IsOverdue(req, now),
	}
}
