package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"purchaseflow/internal/lifecycle"
	"purchaseflow/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemindDefaultsFromStoredRequest(t *testing.T) {
	f := newFixture()
	key := submitted(t, f)
	svc := NewReminderService(f.deps)

	res, err := svc.Remind(context.Background(), ReminderDTO{RequestID: key})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 1, res.ReminderCount)
	assert.Equal(t, "supervisor@corp.test", res.Recipient)

	notes := f.outbox.all()
	reminder := notes[len(notes)-1]
	assert.Equal(t, model.NotifyReminder, reminder.Kind)
	assert.Contains(t, reminder.Subject, "SUPERVISOR APPROVAL")
	assert.Contains(t, reminder.Body, "USD 1500.00")

	res, err = svc.Remind(context.Background(), ReminderDTO{
		RequestID:       key,
		AssigneeContact: "deputy@corp.test",
		CurrentTaskName: "Budget review",
		Amount:          1500,
		Description:     "SOFTWARE - NORMAL",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ReminderCount)
	assert.Equal(t, "deputy@corp.test", res.Recipient)
	assert.Equal(t, 2, f.requests.get(key).ReminderCount)
}

func TestRemindTerminalRequestIsNoop(t *testing.T) {
	f := newFixture()
	key := submitted(t, f)
	_, err := NewSignalService(f.deps).Approve(context.Background(), lifecycle.Signal{BusinessKey: key, Actor: "supervisor@corp.test"})
	require.NoError(t, err)
	before := len(f.outbox.all())

	res, err := NewReminderService(f.deps).Remind(context.Background(), ReminderDTO{RequestID: key})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, 0, res.ReminderCount)
	assert.Len(t, f.outbox.all(), before)
}

func TestSweepRemindsOverdueRequests(t *testing.T) {
	f := newFixture()
	purchases := NewPurchaseService(f.deps)

	overdue, err := purchases.Submit(context.Background(), validDTO())
	require.NoError(t, err)

	*f.clock = t0.Add(9 * 24 * time.Hour)
	fresh, err := purchases.Submit(context.Background(), validDTO())
	require.NoError(t, err)

	*f.clock = t0.Add(10 * 24 * time.Hour)
	res, err := NewReminderService(f.deps).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SweepResult{Open: 2, Overdue: 1, Reminded: 1}, res)
	assert.Equal(t, 1, f.requests.get(overdue.Request.BusinessKey).ReminderCount)
	assert.Equal(t, 0, f.requests.get(fresh.Request.BusinessKey).ReminderCount)

	expected := `
# HELP purchase_requests_overdue Open purchase requests past their deadline at the last sweep
# TYPE purchase_requests_overdue gauge
purchase_requests_overdue 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.deps.Metrics.Registry(), strings.NewReader(expected), "purchase_requests_overdue"))
}
