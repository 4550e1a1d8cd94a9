package rules

import (
	"testing"
	"time"

	"purchaseflow/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func supervisorRequest(created time.Time) *model.PurchaseRequest {
	req := validRequest()
	req.Category = model.CategorySoftware
	req.TotalAmount = decimal.NewFromInt(1500)
	req.CreatedAt = created
	return req
}

func TestIsOverdue_DerivedDeadline(t *testing.T) {
	e := NewEngine(DefaultLimits())
	req := supervisorRequest(now.Add(-10 * 24 * time.Hour))

	assert.Equal(t, req.CreatedAt.Add(4*24*time.Hour), e.Deadline(req))
	assert.True(t, e.IsOverdue(req, now))

	req.Status = model.StatusApproved
	assert.False(t, e.IsOverdue(req, now))
}

func TestIsOverdue_UsesStoredTier(t *testing.T) {
	e := NewEngine(DefaultLimits())
	req := supervisorRequest(now.Add(-5 * 24 * time.Hour))

	// Stored CEO decision (maxDays 7) wins over re-routing (SUPERVISOR, maxDays 4).
	req.ApprovalTier = model.TierCEO
	assert.False(t, e.IsOverdue(req, now))
	assert.Equal(t, e.Deadline(req), e.Deadline(req))

	req.ApprovalTier = ""
	assert.True(t, e.IsOverdue(req, now))
}

func TestIsOverdue_ExplicitDueDate(t *testing.T) {
	e := NewEngine(DefaultLimits())
	req := supervisorRequest(now.Add(-time.Hour))

	due := now.Add(-time.Minute)
	req.DueDate = &due
	req.Status = model.StatusInApproval
	assert.True(t, e.IsOverdue(req, now))

	req.Status = model.StatusRejected
	assert.False(t, e.IsOverdue(req, now))

	later := now.Add(time.Hour)
	req.DueDate = &later
	req.Status = model.StatusPending
	assert.False(t, e.IsOverdue(req, now))
}

func TestContacts(t *testing.T) {
	c := Contacts{Supervisor: "s@x.io", Manager: "m@x.io", CEO: "c@x.io", Fallback: "a@x.io"}
	assert.Equal(t, "", c.For(model.TierAuto))
	assert.Equal(t, "m@x.io", c.For(model.TierManager))
	assert.Equal(t, "a@x.io", c.For(model.ApprovalTier("UNKNOWN")))
	assert.Equal(t, "CEO APPROVAL", TaskName(model.TierCEO))
}
