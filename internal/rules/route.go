package rules

import (
	"fmt"

	"purchaseflow/internal/model"

	"github.com/shopspring/decimal"
)

// RouteInput is everything the route engine looks at.
type RouteInput struct {
	Amount   decimal.Decimal
	Category model.Category
	Priority model.Priority
}

// InputFor extracts the routing input from a request record.
func InputFor(req *model.PurchaseRequest) RouteInput {
	return RouteInput{
		Amount:   req.TotalAmount,
		Category: req.Category,
		Priority: req.Priority,
	}
}

// RouteResult is the routing decision for one request.
type RouteResult struct {
	Rule             string             `json:"rule"`
	Tier             model.ApprovalTier `json:"tier"`
	Reason           string             `json:"reason"`
	AutoEligible     bool               `json:"auto_eligible"`
	UrgentEscalation bool               `json:"urgent_escalation"`
	HighValue        bool               `json:"high_value"`
	Strategic        bool               `json:"strategic"`
}

// rule is one entry of the ordered rule set. decide returns false when the
// rule does not apply.
type rule struct {
	name   string
	decide func(in RouteInput) (RouteResult, bool)
}

// Engine classifies requests into approval tiers. The rules run in order and
// the first one that applies wins; broader rules sit below narrower ones.
type Engine struct {
	limits Limits
	rules  []rule
}

// NewEngine builds the rule set for the given limits.
func NewEngine(limits Limits) *Engine {
	e := &Engine{limits: limits}
	e.rules = []rule{
		{"auto-approval-limit", e.autoApproval},
		{"office-supplies-auto", e.officeSuppliesAuto},
		{"urgent-escalation", e.urgentEscalation},
		{"strategic-category", e.strategicCategory},
		{"high-value", e.highValue},
		{"equipment-manager", e.equipmentManager},
		{"supervisor-range", e.supervisorRange},
	}
	return e
}

// Limits returns the thresholds the engine was built with.
func (e *Engine) Limits() Limits { return e.limits }

// Route applies the rule set. It is total: when no rule applies the request
// falls back to the supervisor tier.
func (e *Engine) Route(in RouteInput) RouteResult {
	for _, r := range e.rules {
		if res, ok := r.decide(in); ok {
			res.Rule = r.name
			return res
		}
	}
	return RouteResult{
		Rule:   "fallback",
		Tier:   model.TierSupervisor,
		Reason: "Default rule - Supervisor approval (fallback)",
	}
}

// RouteRequest is Route over a stored record.
func (e *Engine) RouteRequest(req *model.PurchaseRequest) RouteResult {
	return e.Route(InputFor(req))
}

func (e *Engine) autoApproval(in RouteInput) (RouteResult, bool) {
	if in.Amount.GreaterThan(e.limits.AutoApproval) {
		return RouteResult{}, false
	}
	return RouteResult{
		Tier:         model.TierAuto,
		Reason:       fmt.Sprintf("Amount <= %s - automatic approval", money(e.limits.AutoApproval)),
		AutoEligible: true,
	}, true
}

func (e *Engine) officeSuppliesAuto(in RouteInput) (RouteResult, bool) {
	if in.Category != model.CategoryOfficeSupplies || in.Amount.GreaterThan(e.limits.OfficeSuppliesAuto) {
		return RouteResult{}, false
	}
	return RouteResult{
		Tier:         model.TierAuto,
		Reason:       fmt.Sprintf("Office supplies <= %s - automatic approval", money(e.limits.OfficeSuppliesAuto)),
		AutoEligible: true,
	}, true
}

func (e *Engine) urgentEscalation(in RouteInput) (RouteResult, bool) {
	if in.Priority != model.PriorityHigh && in.Priority != model.PriorityUrgent {
		return RouteResult{}, false
	}
	if !in.Amount.GreaterThan(e.limits.UrgentEscalation) {
		return RouteResult{}, false
	}
	if in.Amount.GreaterThan(e.limits.Manager) {
		return RouteResult{
			Tier: model.TierCEO,
			Reason: fmt.Sprintf("%s request above %s - escalated to CEO",
				in.Priority, money(e.limits.Manager)),
			UrgentEscalation: true,
		}, true
	}
	return RouteResult{
		Tier: model.TierManager,
		Reason: fmt.Sprintf("%s request above %s - escalated to Manager",
			in.Priority, money(e.limits.UrgentEscalation)),
		UrgentEscalation: true,
	}, true
}

func (e *Engine) strategicCategory(in RouteInput) (RouteResult, bool) {
	if in.Category != model.CategoryStrategic && in.Category != model.CategoryConsulting {
		return RouteResult{}, false
	}
	if !in.Amount.GreaterThan(e.limits.StrategicCEO) {
		return RouteResult{}, false
	}
	return RouteResult{
		Tier: model.TierCEO,
		Reason: fmt.Sprintf("Strategic/consulting category above %s strategic threshold - requires CEO approval",
			money(e.limits.StrategicCEO)),
		Strategic: true,
	}, true
}

func (e *Engine) highValue(in RouteInput) (RouteResult, bool) {
	if !in.Amount.GreaterThan(e.limits.Manager) {
		return RouteResult{}, false
	}
	return RouteResult{
		Tier:      model.TierCEO,
		Reason:    fmt.Sprintf("Amount above %s - requires CEO approval", money(e.limits.Manager)),
		HighValue: true,
	}, true
}

func (e *Engine) equipmentManager(in RouteInput) (RouteResult, bool) {
	if in.Category != model.CategoryEquipment && in.Category != model.CategoryITHardware {
		return RouteResult{}, false
	}
	if !in.Amount.GreaterThan(e.limits.Supervisor) || in.Amount.GreaterThan(e.limits.Manager) {
		return RouteResult{}, false
	}
	return RouteResult{
		Tier: model.TierManager,
		Reason: fmt.Sprintf("Equipment/IT hardware between %s and %s - Manager approval",
			money(e.limits.Supervisor), money(e.limits.Manager)),
	}, true
}

func (e *Engine) supervisorRange(in RouteInput) (RouteResult, bool) {
	if !in.Amount.GreaterThan(e.limits.AutoApproval) || in.Amount.GreaterThan(e.limits.Supervisor) {
		return RouteResult{}, false
	}
	return RouteResult{
		Tier: model.TierSupervisor,
		Reason: fmt.Sprintf("Amount between %s and %s - Supervisor approval",
			money(e.limits.AutoApproval), money(e.limits.Supervisor)),
	}, true
}

func money(d decimal.Decimal) string {
	return "$" + d.String()
}
