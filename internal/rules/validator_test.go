package rules

import (
	"strings"
	"testing"
	"time"

	"purchaseflow/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func validRequest() *model.PurchaseRequest {
	return &model.PurchaseRequest{
		RequesterName:  "Ana Torres",
		RequesterEmail: "ana.torres@example.com",
		Department:     "Finance",
		Description:    "Printer toner for the second floor",
		TotalAmount:    decimal.NewFromInt(150),
		Currency:       "USD",
		Category:       model.CategoryOfficeSupplies,
		Priority:       model.PriorityNormal,
		SupplierName:   "Office Depot",
		SupplierEmail:  "sales@officedepot.example.com",
		Status:         model.StatusPending,
	}
}

func TestValidate_ValidRequest(t *testing.T) {
	res := NewValidator(DefaultLimits()).Validate(validRequest(), now)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidate_BlockingErrors(t *testing.T) {
	v := NewValidator(DefaultLimits())

	cases := []struct {
		name   string
		mutate func(r *model.PurchaseRequest)
		want   string
	}{
		{"zero amount", func(r *model.PurchaseRequest) { r.TotalAmount = decimal.Zero }, "greater than $0"},
		{"missing amount", func(r *model.PurchaseRequest) { r.TotalAmount = decimal.Decimal{} }, "greater than $0"},
		{"negative amount", func(r *model.PurchaseRequest) { r.TotalAmount = decimal.NewFromInt(-5) }, "greater than $0"},
		{"above ceiling", func(r *model.PurchaseRequest) { r.TotalAmount = decimal.NewFromInt(1500000) }, "maximum limit of $1000000"},
		{"blank supplier", func(r *model.PurchaseRequest) { r.SupplierName = "   " }, "supplier"},
		{"short description", func(r *model.PurchaseRequest) { r.Description = "123456789" }, "description"},
		{"long description", func(r *model.PurchaseRequest) { r.Description = strings.Repeat("x", 501) }, "description"},
		{"bad requester email", func(r *model.PurchaseRequest) { r.RequesterEmail = "ana@" }, "requester email"},
		{"blank department", func(r *model.PurchaseRequest) { r.Department = "" }, "department"},
		{"blank requester", func(r *model.PurchaseRequest) { r.RequesterName = "" }, "requester name"},
		{"unknown currency", func(r *model.PurchaseRequest) { r.Currency = "GBP" }, "currency"},
		{"bad supplier email", func(r *model.PurchaseRequest) { r.SupplierEmail = "not-an-email" }, "supplier email"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)
			res := v.Validate(req, now)
			require.False(t, res.Valid)
			require.Len(t, res.Errors, 1)
			assert.Contains(t, res.Errors[0], tc.want)
		})
	}
}

func TestValidate_BoundaryAmounts(t *testing.T) {
	v := NewValidator(DefaultLimits())

	req := validRequest()
	req.TotalAmount = decimal.NewFromInt(1000000)
	assert.True(t, v.Validate(req, now).Valid)

	req.TotalAmount = decimal.RequireFromString("0.01")
	assert.True(t, v.Validate(req, now).Valid)
}

func TestValidate_SubCentAmounts(t *testing.T) {
	v := NewValidator(DefaultLimits())
	engine := NewEngine(DefaultLimits())

	for _, raw := range []string{"0.001", "200.004"} {
		req := validRequest()
		req.TotalAmount = decimal.RequireFromString(raw)
		res := v.Validate(req, now)
		assert.False(t, res.Valid, raw)
		assert.Contains(t, res.Errors, "amount cannot have more than 2 decimal places", raw)
	}

	// trailing zeros are not extra precision
	req := validRequest()
	req.Category = model.CategorySoftware
	req.TotalAmount = decimal.RequireFromString("200.010")
	assert.True(t, v.Validate(req, now).Valid)
	assert.Equal(t, model.TierSupervisor, engine.RouteRequest(req).Tier)
}

func TestValidate_Warnings(t *testing.T) {
	v := NewValidator(DefaultLimits())

	t.Run("urgent and very high amount", func(t *testing.T) {
		req := validRequest()
		req.Category = model.CategoryEquipment
		req.Priority = model.PriorityUrgent
		req.TotalAmount = decimal.NewFromInt(150000)
		res := v.Validate(req, now)
		assert.True(t, res.Valid)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "special justification")
	})

	t.Run("office supplies above review amount", func(t *testing.T) {
		req := validRequest()
		req.TotalAmount = decimal.NewFromInt(6000)
		res := v.Validate(req, now)
		assert.True(t, res.Valid)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "verify necessity")
	})

	t.Run("due date within a day", func(t *testing.T) {
		req := validRequest()
		due := now.Add(2 * time.Hour)
		req.DueDate = &due
		res := v.Validate(req, now)
		assert.True(t, res.Valid)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "approval timeline")
	})

	t.Run("due date far away", func(t *testing.T) {
		req := validRequest()
		due := now.Add(72 * time.Hour)
		req.DueDate = &due
		assert.Empty(t, v.Validate(req, now).Warnings)
	})
}

func TestValidate_DoesNotMutate(t *testing.T) {
	req := validRequest()
	before := *req
	NewValidator(DefaultLimits()).Validate(req, now)
	assert.Equal(t, before, *req)
}

func TestValidationResult_Merge(t *testing.T) {
	a := ValidationResult{Valid: true, Warnings: []string{"w1"}}
	b := ValidationResult{Valid: false, Errors: []string{"e1"}}
	m := a.Merge(b)
	assert.False(t, m.Valid)
	assert.Equal(t, []string{"e1"}, m.Errors)
	assert.Equal(t, []string{"w1"}, m.Warnings)
}
