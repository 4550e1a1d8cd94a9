package repository

import (
	"context"
	"fmt"

	"purchaseflow/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseRequestFilter narrows List. Empty fields are ignored.
type PurchaseRequestFilter struct {
	Status         model.Status
	Department     string
	RequesterEmail string
	Page           int
	Limit          int
}

// Aggregates are the headline figures of the dashboard.
type Aggregates struct {
	Total                  int64           `json:"total"`
	AverageAmount          decimal.Decimal `json:"average_amount"`
	ApprovedAmount         decimal.Decimal `json:"approved_amount"`
	AverageProcessingHours float64         `json:"average_processing_hours"`
}

// GroupTotal is one row of a dashboard breakdown.
type GroupTotal struct {
	Key   string          `json:"key"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type PurchaseRequestRepository interface {
	Create(ctx context.Context, req *model.PurchaseRequest) error
	FindByBusinessKey(ctx context.Context, key string) (*model.PurchaseRequest, error)
	// UpdateVersioned writes req only if nobody else updated it since it was
	// read. It reports false on a version conflict.
	UpdateVersioned(ctx context.Context, req *model.PurchaseRequest) (bool, error)
	List(ctx context.Context, filter PurchaseRequestFilter) ([]model.PurchaseRequest, int64, error)
	ListOpen(ctx context.Context) ([]model.PurchaseRequest, error)
	CountByStatus(ctx context.Context) (map[model.Status]int64, error)
	TotalsBy(ctx context.Context, column string) ([]GroupTotal, error)
	Aggregate(ctx context.Context) (Aggregates, error)
}

type purchaseRequestRepository struct {
	db *gorm.DB
}

func NewPurchaseRequestRepository(db *gorm.DB) PurchaseRequestRepository {
	return &purchaseRequestRepository{db: db}
}

func (r *purchaseRequestRepository) Create(ctx context.Context, req *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *purchaseRequestRepository) FindByBusinessKey(ctx context.Context, key string) (*model.PurchaseRequest, error) {
	var req model.PurchaseRequest
	if err := GetDB(ctx, r.db).First(&req, "business_key = ?", key).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *purchaseRequestRepository) UpdateVersioned(ctx context.Context, req *model.PurchaseRequest) (bool, error) {
	next := *req
	next.Version = req.Version + 1

	res := GetDB(ctx, r.db).
		Model(&model.PurchaseRequest{}).
		Where("id = ? AND version = ?", req.ID, req.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(&next)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	req.Version = next.Version
	req.UpdatedAt = next.UpdatedAt
	return true, nil
}

func (r *purchaseRequestRepository) List(ctx context.Context, filter PurchaseRequestFilter) ([]model.PurchaseRequest, int64, error) {
	var requests []model.PurchaseRequest
	var total int64

	scoped := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.Department != "" {
			db = db.Where("department = ?", filter.Department)
		}
		if filter.RequesterEmail != "" {
			db = db.Where("requester_email = ?", filter.RequesterEmail)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.PurchaseRequest{}).Scopes(scoped).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Scopes(scoped).Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *purchaseRequestRepository) ListOpen(ctx context.Context) ([]model.PurchaseRequest, error) {
	var requests []model.PurchaseRequest
	err := GetDB(ctx, r.db).
		Where("status IN ?", []model.Status{model.StatusPending, model.StatusInApproval}).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *purchaseRequestRepository) CountByStatus(ctx context.Context) (map[model.Status]int64, error) {
	var rows []struct {
		Status model.Status
		Count  int64
	}
	if err := GetDB(ctx, r.db).Model(&model.PurchaseRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.Status]int64, len(model.Statuses))
	for _, s := range model.Statuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

var groupableColumns = map[string]bool{
	"category":   true,
	"department": true,
	"status":     true,
	"priority":   true,
}

func (r *purchaseRequestRepository) TotalsBy(ctx context.Context, column string) ([]GroupTotal, error) {
	if !groupableColumns[column] {
		return nil, fmt.Errorf("cannot group purchase requests by %q", column)
	}

	var rows []GroupTotal
	err := GetDB(ctx, r.db).Model(&model.PurchaseRequest{}).
		Select(column + " AS key, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
		Group(column).
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *purchaseRequestRepository) Aggregate(ctx context.Context) (Aggregates, error) {
	var agg Aggregates
	err := GetDB(ctx, r.db).Model(&model.PurchaseRequest{}).
		Select(`COUNT(*) AS total,
			COALESCE(AVG(total_amount), 0) AS average_amount,
			COALESCE(SUM(CASE WHEN status = ? THEN total_amount END), 0) AS approved_amount,
			COALESCE(AVG(processing_time_hours), 0) AS average_processing_hours`, model.StatusApproved).
		Scan(&agg).Error
	return agg, err
}
