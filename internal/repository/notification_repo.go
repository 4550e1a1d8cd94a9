package repository

import (
	"context"
	"time"

	"purchaseflow/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository interface {
	Enqueue(ctx context.Context, n *model.Notification) error
	// ClaimDue locks up to limit pending rows whose next attempt is due. It
	// must run inside a transaction; rows locked by another worker are skipped.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.Notification, error)
	Save(ctx context.Context, n *model.Notification) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Enqueue(ctx context.Context, n *model.Notification) error {
	return GetDB(ctx, r.db).Create(n).Error
}

func (r *notificationRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.Notification, error) {
	var rows []model.Notification
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND next_attempt_at <= ?", model.DeliveryPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *notificationRepository) Save(ctx context.Context, n *model.Notification) error {
	return GetDB(ctx, r.db).Save(n).Error
}
