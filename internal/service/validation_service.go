package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"purchaseflow/internal/model"
	"purchaseflow/internal/rules"
	"purchaseflow/internal/workflow"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type ApprovalInfo struct {
	Route            model.ApprovalTier `json:"route"`
	RouteDisplayName string             `json:"routeDisplayName"`
	Reason           string             `json:"reason"`
	AutoApproval     bool               `json:"autoApproval"`
	EstimatedDays    int                `json:"estimatedDays"`
	MaxDays          int                `json:"maxDays"`
	ApproverContact  string             `json:"approverContact"`
}

type ValidationResponse struct {
	Valid        bool         `json:"valid"`
	Errors       []string     `json:"errors"`
	Warnings     []string     `json:"warnings"`
	ApprovalInfo ApprovalInfo `json:"approvalInfo"`
}

type TierRule struct {
	Tier        model.ApprovalTier `json:"tier"`
	DisplayName string             `json:"displayName"`
	Approver    string             `json:"approver"`
}

type BusinessRules struct {
	Limits         rules.Limits      `json:"amountLimits"`
	ApprovalRoutes []TierRule        `json:"approvalRoutes"`
	CategoryRules  map[string]string `json:"categoryRules"`
	Categories     []model.Category  `json:"categories"`
	Priorities     []model.Priority  `json:"priorities"`
}

type SimulationInput struct {
	Amount   decimal.Decimal `json:"amount" swaggertype:"number"`
	Category string          `json:"category" binding:"required"`
	Priority string          `json:"priority"`
}

// SimulationResult mirrors what the orchestration runtime's decision table
// receives and decides for the given input.
type SimulationResult struct {
	InputVariables workflow.Variables `json:"inputVariables"`
	Route          rules.RouteResult  `json:"route"`
	Estimate       rules.TimeEstimate `json:"processingEstimate"`
	Warnings       []string           `json:"warnings"`
}

type ExistingValidation struct {
	BusinessKey   string             `json:"businessKey"`
	Valid         bool               `json:"valid"`
	Errors        []string           `json:"errors"`
	Warnings      []string           `json:"warnings"`
	CurrentStatus model.Status       `json:"currentStatus"`
	ApprovalRoute model.ApprovalTier `json:"approvalRoute"`
	RouteReason   string             `json:"routeReason"`
	IsOverdue     bool               `json:"isOverdue"`
	Deadline      string             `json:"deadline"`
}

// --- Interface ---

// ValidationService is the pre-submission API. It uses the same engine and
// validator as submission.
type ValidationService interface {
	ValidateRequest(dto PurchaseRequestDTO) ValidationResponse
	BusinessRules() BusinessRules
	Simulate(in SimulationInput) (SimulationResult, error)
	ValidateExisting(ctx context.Context, businessKey string) (ExistingValidation, error)
}

type validationService struct {
	deps   Deps
	intake Intake
}

func NewValidationService(deps Deps) ValidationService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &validationService{deps: deps, intake: Intake{Lenient: deps.Lenient}}
}

// --- Implementation ---

func (s *validationService) ValidateRequest(dto PurchaseRequestDTO) ValidationResponse {
	req, parsed := s.intake.Build(dto)
	verdict := parsed.Merge(s.deps.Validator.Validate(req, s.deps.Now()))

	route := s.deps.Engine.Route(rules.InputFor(req))
	est := rules.Estimate(route.Tier, req.Priority)

	return ValidationResponse{
		Valid:    verdict.Valid,
		Errors:   verdict.Errors,
		Warnings: verdict.Warnings,
		ApprovalInfo: ApprovalInfo{
			Route:            route.Tier,
			RouteDisplayName: route.Tier.DisplayName(),
			Reason:           route.Reason,
			AutoApproval:     route.AutoEligible,
			EstimatedDays:    est.EstimatedDays,
			MaxDays:          est.MaxDays,
			ApproverContact:  s.deps.Contacts.For(route.Tier),
		},
	}
}

func (s *validationService) BusinessRules() BusinessRules {
	l := s.deps.Engine.Limits()
	return BusinessRules{
		Limits: l,
		ApprovalRoutes: lo.Map(model.Tiers, func(t model.ApprovalTier, _ int) TierRule {
			return TierRule{Tier: t, DisplayName: t.DisplayName(), Approver: s.deps.Contacts.For(t)}
		}),
		CategoryRules: map[string]string{
			string(model.CategoryOfficeSupplies): fmt.Sprintf("automatic approval up to $%s", l.OfficeSuppliesAuto),
			string(model.CategoryStrategic):      fmt.Sprintf("CEO approval above $%s", l.StrategicCEO),
			string(model.CategoryConsulting):     fmt.Sprintf("CEO approval above $%s", l.StrategicCEO),
			string(model.CategoryEquipment):      fmt.Sprintf("Manager approval between $%s and $%s", l.Supervisor, l.Manager),
			string(model.CategoryITHardware):     fmt.Sprintf("Manager approval between $%s and $%s", l.Supervisor, l.Manager),
		},
		Categories: model.Categories,
		Priorities: model.Priorities,
	}
}

func (s *validationService) Simulate(in SimulationInput) (SimulationResult, error) {
	category, ok := model.ParseCategory(in.Category)
	if !ok {
		return SimulationResult{}, &ValidationError{Result: rules.ValidationResult{
			Errors: []string{fmt.Sprintf("unknown category %q", in.Category)},
		}}
	}
	priority := model.PriorityNormal
	if in.Priority != "" {
		if priority, ok = model.ParsePriority(in.Priority); !ok {
			return SimulationResult{}, &ValidationError{Result: rules.ValidationResult{
				Errors: []string{fmt.Sprintf("unknown priority %q", in.Priority)},
			}}
		}
	}

	req := &model.PurchaseRequest{
		BusinessKey: "SIMULATION",
		TotalAmount: in.Amount,
		Category:    category,
		Priority:    priority,
		Currency:    "USD",
	}
	route := s.deps.Engine.Route(rules.InputFor(req))
	vars := workflow.VariablesFor(req)

	return SimulationResult{
		InputVariables: workflow.Variables{
			workflow.DecisionAmount:   vars[workflow.DecisionAmount],
			workflow.DecisionCategory: vars[workflow.DecisionCategory],
			workflow.VarPriority:      vars[workflow.VarPriority],
		},
		Route:    route,
		Estimate: rules.Estimate(route.Tier, priority),
		Warnings: s.deps.Validator.Validate(req, s.deps.Now()).Warnings,
	}, nil
}

func (s *validationService) ValidateExisting(ctx context.Context, businessKey string) (ExistingValidation, error) {
	req, err := s.deps.Requests.FindByBusinessKey(ctx, businessKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ExistingValidation{}, fmt.Errorf("%w: %s", ErrNotFound, businessKey)
	}
	if err != nil {
		return ExistingValidation{}, fmt.Errorf("failed to load purchase request: %w", err)
	}

	now := s.deps.Now()
	verdict := s.deps.Validator.Validate(req, now)
	route := s.deps.Engine.RouteRequest(req)

	return ExistingValidation{
		BusinessKey:   req.BusinessKey,
		Valid:         verdict.Valid,
		Errors:        verdict.Errors,
		Warnings:      verdict.Warnings,
		CurrentStatus: req.Status,
		ApprovalRoute: route.Tier,
		RouteReason:   route.Reason,
		IsOverdue:     s.deps.Engine.IsOverdue(req, now),
		Deadline:      s.deps.Engine.Deadline(req).Format(time.RFC3339),
	}, nil
}
