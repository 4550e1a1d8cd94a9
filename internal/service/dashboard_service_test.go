package service

import (
	"context"
	"testing"
	"time"

	"purchaseflow/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	f := newFixture()
	purchases := NewPurchaseService(f.deps)

	_, err := purchases.Submit(context.Background(), validDTO())
	require.NoError(t, err)
	small := validDTO()
	small.TotalAmount = amount(100)
	small.Department = "Finance"
	_, err = purchases.Submit(context.Background(), small)
	require.NoError(t, err)

	*f.clock = t0.Add(6 * 24 * time.Hour)
	dash, err := NewDashboardService(f.requests, f.deps.Engine, f.deps.Now).GetDashboard(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, dash.Total)
	assert.EqualValues(t, 1, dash.ByStatus[model.StatusApproved])
	assert.EqualValues(t, 1, dash.ByStatus[model.StatusInApproval])
	assert.EqualValues(t, 0, dash.ByStatus[model.StatusRejected])
	assert.True(t, dash.ApprovedAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, dash.AverageAmount.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, 1, dash.OverdueCount)
	require.Len(t, dash.Overdue, 1)
	assert.Equal(t, model.TierSupervisor, dash.Overdue[0].Tier)

	require.Len(t, dash.ByDepartment, 2)
	for _, b := range dash.ByDepartment {
		assert.Equal(t, 50.0, b.Percentage)
	}
}
