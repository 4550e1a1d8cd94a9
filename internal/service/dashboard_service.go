package service

import (
	"context"
	"fmt"
	"time"

	"purchaseflow/internal/model"
	"purchaseflow/internal/repository"
	"purchaseflow/internal/rules"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type Breakdown struct {
	Key        string          `json:"key"`
	Count      int64           `json:"count"`
	Total      decimal.Decimal `json:"total"`
	Percentage float64         `json:"percentage"`
}

type OverdueItem struct {
	BusinessKey string             `json:"business_key"`
	Tier        model.ApprovalTier `json:"tier"`
	Status      model.Status       `json:"status"`
	Deadline    string             `json:"deadline"`
	Reminders   int                `json:"reminder_count"`
}

type DashboardResponse struct {
	ByStatus               map[model.Status]int64 `json:"by_status"`
	Total                  int64                  `json:"total"`
	AverageAmount          decimal.Decimal        `json:"average_amount"`
	ApprovedAmount         decimal.Decimal        `json:"approved_amount"`
	AverageProcessingHours float64                `json:"average_processing_hours"`
	OverdueCount           int                    `json:"overdue_count"`
	Overdue                []OverdueItem          `json:"overdue"`
	ByCategory             []Breakdown            `json:"by_category"`
	ByDepartment           []Breakdown            `json:"by_department"`
}

type DashboardService interface {
	GetDashboard(ctx context.Context) (DashboardResponse, error)
}

type dashboardService struct {
	requests repository.PurchaseRequestRepository
	engine   *rules.Engine
	now      func() time.Time
}

func NewDashboardService(requests repository.PurchaseRequestRepository, engine *rules.Engine, now func() time.Time) DashboardService {
	if now == nil {
		now = time.Now
	}
	return &dashboardService{requests: requests, engine: engine, now: now}
}

// GetDashboard reads committed state without taking any lifecycle lock.
func (s *dashboardService) GetDashboard(ctx context.Context) (DashboardResponse, error) {
	byStatus, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count by status: %w", err)
	}
	agg, err := s.requests.Aggregate(ctx)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to aggregate purchase requests: %w", err)
	}
	categories, err := s.requests.TotalsBy(ctx, "category")
	if err != nil {
		return DashboardResponse{}, err
	}
	departments, err := s.requests.TotalsBy(ctx, "department")
	if err != nil {
		return DashboardResponse{}, err
	}
	open, err := s.requests.ListOpen(ctx)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to list open purchase requests: %w", err)
	}

	now := s.now()
	overdue := make([]OverdueItem, 0)
	for i := range open {
		req := &open[i]
		if !s.engine.IsOverdue(req, now) {
			continue
		}
		overdue = append(overdue, OverdueItem{
			BusinessKey: req.BusinessKey,
			Tier:        req.ApprovalTier,
			Status:      req.Status,
			Deadline:    s.engine.Deadline(req).Format(time.RFC3339),
			Reminders:   req.ReminderCount,
		})
	}

	return DashboardResponse{
		ByStatus:               byStatus,
		Total:                  agg.Total,
		AverageAmount:          agg.AverageAmount.Round(2),
		ApprovedAmount:         agg.ApprovedAmount,
		AverageProcessingHours: agg.AverageProcessingHours,
		OverdueCount:           len(overdue),
		Overdue:                overdue,
		ByCategory:             withPercentages(categories, agg.Total),
		ByDepartment:           withPercentages(departments, agg.Total),
	}, nil
}

func withPercentages(rows []repository.GroupTotal, total int64) []Breakdown {
	return lo.Map(rows, func(r repository.GroupTotal, _ int) Breakdown {
		pct := 0.0
		if total > 0 {
			pct = float64(r.Count) * 100 / float64(total)
		}
		return Breakdown{Key: r.Key, Count: r.Count, Total: r.Total, Percentage: pct}
	})
}
