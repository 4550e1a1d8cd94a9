package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"purchaseflow/internal/lifecycle"
	"purchaseflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitted(t *testing.T, f *fixture) string {
	t.Helper()
	res, err := NewPurchaseService(f.deps).Submit(context.Background(), validDTO())
	require.NoError(t, err)
	require.Equal(t, model.StatusInApproval, res.Request.Status)
	return res.Request.BusinessKey
}

func TestApproveSignal(t *testing.T) {
	f := newFixture()
	key := submitted(t, f)
	svc := NewSignalService(f.deps)

	done := t0.Add(26 * time.Hour)
	res, err := svc.Approve(context.Background(), lifecycle.Signal{
		BusinessKey: key,
		Actor:       "supervisor@corp.test",
		Comments:    "ok for Q2",
		CompletedAt: &done,
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, model.StatusApproved, res.Status)

	stored := f.requests.get(key)
	assert.Equal(t, "supervisor@corp.test", stored.ApprovedBy)
	assert.Equal(t, done, *stored.ApprovedAt)
	assert.Equal(t, 26, *stored.ProcessingTimeHours)
	assert.Contains(t, f.audits.actions(key), model.ActionApproveRequest)

	final := f.outbox.all()[1]
	assert.Equal(t, model.NotifyFinalDecision, final.Kind)
	assert.Equal(t, "ana.torres@corp.test", final.Recipient)
}

func TestApproveTwiceIsIdempotent(t *testing.T) {
	f := newFixture()
	key := submitted(t, f)
	svc := NewSignalService(f.deps)
	sig := lifecycle.Signal{BusinessKey: key, Actor: "supervisor@corp.test"}

	_, err := svc.Approve(context.Background(), sig)
	require.NoError(t, err)
	first := f.requests.get(key)

	*f.clock = t0.Add(48 * time.Hour)
	res, err := svc.Approve(context.Background(), sig)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, model.StatusApproved, res.Status)

	second := f.requests.get(key)
	assert.Equal(t, first.ApprovedAt, second.ApprovedAt)
	assert.Equal(t, *first.ProcessingTimeHours, *second.ProcessingTimeHours)
	assert.Equal(t, first.Version, second.Version)
	assert.Contains(t, f.audits.actions(key), model.ActionLifecycleConflict)
	assert.Len(t, f.outbox.all(), 2, "no second decision mail")
}

func TestRejectAfterApproveIsNoop(t *testing.T) {
	f := newFixture()
	key := submitted(t, f)
	svc := NewSignalService(f.deps)

	_, err := svc.Approve(context.Background(), lifecycle.Signal{BusinessKey: key, Actor: "supervisor@corp.test"})
	require.NoError(t, err)

	res, err := svc.Reject(context.Background(), lifecycle.Signal{BusinessKey: key, Actor: "manager@corp.test", Comments: "too late"})
	require.NoError(t, err)
	assert.False(t, res.Applied)

	stored := f.requests.get(key)
	assert.Equal(t, model.StatusApproved, stored.Status)
	assert.Empty(t, stored.RejectionReason)
}

func TestRejectSignal(t *testing.T) {
	f := newFixture()
	key := submitted(t, f)

	res, err := NewSignalService(f.deps).Reject(context.Background(), lifecycle.Signal{
		BusinessKey: key,
		Actor:       "supervisor@corp.test",
		Comments:    "over budget",
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)

	stored := f.requests.get(key)
	assert.Equal(t, model.StatusRejected, stored.Status)
	assert.Equal(t, "over budget", stored.RejectionReason)
	assert.NotNil(t, stored.ApprovedAt)
}

func TestSignalErrors(t *testing.T) {
	f := newFixture()
	svc := NewSignalService(f.deps)

	_, err := svc.Approve(context.Background(), lifecycle.Signal{BusinessKey: "PR-404", Actor: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	pending := model.PurchaseRequest{BusinessKey: "PR-1", Status: model.StatusPending, CreatedAt: t0, Version: 1}
	f.requests.put(pending)
	_, err = svc.Approve(context.Background(), lifecycle.Signal{BusinessKey: "PR-1", Actor: "x"})
	assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
	assert.Equal(t, model.StatusPending, f.requests.get("PR-1").Status)
}

func TestSignalRetriesAfterVersionConflict(t *testing.T) {
	f := newFixture()
	key := submitted(t, f)
	f.requests.staleWrites = 1

	res, err := NewSignalService(f.deps).Approve(context.Background(), lifecycle.Signal{BusinessKey: key, Actor: "supervisor@corp.test"})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, model.StatusApproved, f.requests.get(key).Status)
}

func TestSignalGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture()
	key := submitted(t, f)
	f.requests.staleWrites = maxVersionRetries

	_, err := NewSignalService(f.deps).Approve(context.Background(), lifecycle.Signal{BusinessKey: key, Actor: "supervisor@corp.test"})
	assert.ErrorIs(t, err, errStaleVersion)
	assert.Equal(t, model.StatusInApproval, f.requests.get(key).Status)
}

func TestConcurrentApproveAndRejectApplyOnce(t *testing.T) {
	f := newFixture()
	key := submitted(t, f)
	svc := NewSignalService(f.deps)

	const n = 8
	var wg sync.WaitGroup
	results := make(chan SignalResult, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, err := svc.Approve(context.Background(), lifecycle.Signal{BusinessKey: key, Actor: "supervisor@corp.test"})
			if assert.NoError(t, err) {
				results <- res
			}
		}()
		go func() {
			defer wg.Done()
			res, err := svc.Reject(context.Background(), lifecycle.Signal{BusinessKey: key, Actor: "manager@corp.test", Comments: "no"})
			if assert.NoError(t, err) {
				results <- res
			}
		}()
	}
	wg.Wait()
	close(results)

	applied := 0
	for res := range results {
		if res.Applied {
			applied++
		}
	}
	assert.Equal(t, 1, applied)

	stored := f.requests.get(key)
	assert.True(t, stored.Status.IsTerminal())
	decisions := 0
	for _, n := range f.outbox.all() {
		if n.Kind == model.NotifyFinalDecision {
			decisions++
		}
	}
	assert.Equal(t, 1, decisions)
}
