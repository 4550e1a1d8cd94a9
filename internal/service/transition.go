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

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxVersionRetries bounds how often a transition is re-applied after losing
// an optimistic version check to another instance.
const maxVersionRetries = 3

var errStaleVersion = errors.New("purchase request was modified concurrently")

// Publisher pushes status changes to live clients.
type Publisher interface {
	Publish(event string, payload any)
}

// StatusEvent is what Publisher receives after every applied transition.
type StatusEvent struct {
	BusinessKey string       `json:"business_key"`
	From        model.Status `json:"from"`
	To          model.Status `json:"to"`
	Actor       string       `json:"actor"`
	Action      string       `json:"action"`
}

// transition describes one guarded change of a stored request.
type transition struct {
	key    string
	actor  string
	action string
	// reportNoop records a skipped transition as a lifecycle conflict.
	reportNoop bool
	details    map[string]any
	apply      func(m *lifecycle.Machine) (lifecycle.Outcome, error)
	// notify builds the outbox rows to enqueue when the transition applied.
	notify func(req *model.PurchaseRequest, now time.Time) []model.Notification
}

// transitioner is the single writer for request status. Each transition runs
// under the per-key lock, inside one database transaction, and is written
// with a version check.
type transitioner struct {
	txManager repository.TransactionManager
	requests  repository.PurchaseRequestRepository
	audits    repository.AuditRepository
	outbox    repository.NotificationRepository
	locker    lifecycle.Locker
	metrics   *metrics.Metrics
	publisher Publisher
	now       func() time.Time
}

func (t *transitioner) run(ctx context.Context, tr transition) (*model.PurchaseRequest, lifecycle.Outcome, error) {
	unlock, err := t.locker.Lock(ctx, tr.key)
	if err != nil {
		return nil, lifecycle.Outcome{}, fmt.Errorf("lock %s: %w", tr.key, err)
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		req, out, err := t.once(ctx, tr)
		if errors.Is(err, errStaleVersion) && attempt < maxVersionRetries {
			log.Printf("lifecycle: %s on %s lost a version race, retrying (%d)", tr.action, tr.key, attempt)
			continue
		}
		if err != nil {
			return nil, out, err
		}

		if out.Applied {
			if out.From != out.To {
				t.metrics.Transition(string(out.To))
			}
			if t.publisher != nil {
				t.publisher.Publish("purchase_request.status", StatusEvent{
					BusinessKey: req.BusinessKey,
					From:        out.From,
					To:          out.To,
					Actor:       tr.actor,
					Action:      tr.action,
				})
			}
		} else if tr.reportNoop {
			t.metrics.Conflict()
		}
		return req, out, nil
	}
}

func (t *transitioner) once(ctx context.Context, tr transition) (*model.PurchaseRequest, lifecycle.Outcome, error) {
	var (
		req *model.PurchaseRequest
		out lifecycle.Outcome
	)

	err := t.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := t.requests.FindByBusinessKey(txCtx, tr.key)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, tr.key)
		}
		if err != nil {
			return fmt.Errorf("failed to load purchase request: %w", err)
		}
		req = found

		now := t.now()
		out, err = tr.apply(lifecycle.New(req, t.now))
		if err != nil {
			return err
		}

		if !out.Applied {
			if !tr.reportNoop {
				return nil
			}
			log.Printf("lifecycle conflict: %s by %s ignored for %s (%s)", tr.action, tr.actor, tr.key, out.Note)
			return t.writeAudit(txCtx, req, tr, model.ActionLifecycleConflict, out, now)
		}

		ok, err := t.requests.UpdateVersioned(txCtx, req)
		if err != nil {
			return fmt.Errorf("failed to update purchase request: %w", err)
		}
		if !ok {
			return errStaleVersion
		}

		if err := t.writeAudit(txCtx, req, tr, tr.action, out, now); err != nil {
			return err
		}

		if tr.notify != nil {
			for _, n := range tr.notify(req, now) {
				if n.Recipient == "" {
					continue
				}
				if err := t.outbox.Enqueue(txCtx, &n); err != nil {
					return fmt.Errorf("failed to enqueue notification: %w", err)
				}
			}
		}
		return nil
	})
	return req, out, err
}

func (t *transitioner) writeAudit(ctx context.Context, req *model.PurchaseRequest, tr transition, action string, out lifecycle.Outcome, now time.Time) error {
	payload := map[string]any{}
	for k, v := range tr.details {
		payload[k] = v
	}
	if out.Note != "" {
		payload["note"] = out.Note
	}
	details, _ := json.Marshal(payload)

	entry := model.AuditLog{
		ID:          uuid.New(),
		Actor:       tr.actor,
		Action:      action,
		BusinessKey: req.BusinessKey,
		FromStatus:  out.From,
		ToStatus:    out.To,
		Details:     string(details),
		CreatedAt:   now,
	}
	if err := t.audits.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
