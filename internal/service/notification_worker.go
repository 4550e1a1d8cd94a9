package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"purchaseflow/internal/metrics"
	"purchaseflow/internal/model"
	"purchaseflow/internal/repository"
)

// OutboxSettings tune delivery retries.
type OutboxSettings struct {
	BatchSize   int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// NotificationWorker drains the notification outbox. Delivery failures are
// retried with exponential backoff and never touch request state; a message
// that keeps failing is parked as DEAD.
type NotificationWorker struct {
	txManager repository.TransactionManager
	outbox    repository.NotificationRepository
	mailer    Mailer
	metrics   *metrics.Metrics
	settings  OutboxSettings
	now       func() time.Time
}

func NewNotificationWorker(txManager repository.TransactionManager, outbox repository.NotificationRepository,
	mailer Mailer, m *metrics.Metrics, settings OutboxSettings, now func() time.Time) *NotificationWorker {
	if now == nil {
		now = time.Now
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = 20
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = 6
	}
	return &NotificationWorker{
		txManager: txManager,
		outbox:    outbox,
		mailer:    mailer,
		metrics:   m,
		settings:  settings,
		now:       now,
	}
}

// Run polls until ctx is done.
func (w *NotificationWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("notification worker started (every %s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("notification worker stopped")
			return
		case <-ticker.C:
			if _, err := w.DeliverDue(ctx); err != nil {
				log.Printf("notification worker: %v", err)
			}
		}
	}
}

// DeliverDue sends one batch of due messages and reports how many were sent.
func (w *NotificationWorker) DeliverDue(ctx context.Context) (int, error) {
	sent := 0
	err := w.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		due, err := w.outbox.ClaimDue(txCtx, w.now(), w.settings.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to claim notifications: %w", err)
		}

		for i := range due {
			n := &due[i]
			w.attempt(ctx, n)
			if n.Status == model.DeliverySent {
				sent++
			}
			if err := w.outbox.Save(txCtx, n); err != nil {
				return fmt.Errorf("failed to update notification %s: %w", n.ID, err)
			}
		}
		return nil
	})
	return sent, err
}

func (w *NotificationWorker) attempt(ctx context.Context, n *model.Notification) {
	n.Attempts++
	err := w.mailer.Send(ctx, n.Recipient, n.Subject, n.Body)
	now := w.now()

	switch {
	case err == nil:
		n.Status = model.DeliverySent
		n.SentAt = &now
		n.LastError = ""
		w.metrics.Delivery("sent")
	case n.Attempts >= w.settings.MaxAttempts:
		n.Status = model.DeliveryDead
		n.LastError = err.Error()
		w.metrics.Delivery("dead")
		log.Printf("notification %s to %s dead after %d attempts: %v", n.ID, n.Recipient, n.Attempts, err)
	default:
		n.LastError = err.Error()
		n.NextAttemptAt = now.Add(Backoff(n.Attempts, w.settings.BaseBackoff, w.settings.MaxBackoff))
		w.metrics.Delivery("retry")
	}
}

// Backoff is the wait after the given failed attempt: base doubled per
// attempt, capped at limit.
func Backoff(attempt int, base, limit time.Duration) time.Duration {
	if base <= 0 {
		base = 30 * time.Second
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if limit > 0 && d >= limit {
			return limit
		}
	}
	if limit > 0 && d > limit {
		return limit
	}
	return d
}
