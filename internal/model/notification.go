package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind enum constants
const (
	NotifyApprovalRequested = "APPROVAL_REQUESTED" // to the approver of the assigned tier
	NotifyReminder          = "REMINDER"
	NotifyFinalDecision     = "FINAL_DECISION" // to the requester
)

// Notification delivery status
const (
	DeliveryPending = "PENDING"
	DeliverySent    = "SENT"
	DeliveryDead    = "DEAD"
)

// Notification is an outbox row: written in the same transaction as the
// lifecycle change, delivered later by the notification worker.
type Notification struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessKey   string     `gorm:"type:varchar(40);index" json:"business_key"`
	Kind          string     `gorm:"type:varchar(30);not null" json:"kind"`
	Recipient     string     `gorm:"type:varchar(255);not null" json:"recipient"`
	Subject       string     `gorm:"type:varchar(255);not null" json:"subject"`
	Body          string     `gorm:"type:text;not null" json:"body"`
	Status        string     `gorm:"type:varchar(10);not null;default:'PENDING';index:idx_outbox_due,priority:1" json:"status"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt time.Time  `gorm:"index:idx_outbox_due,priority:2" json:"next_attempt_at"`
	LastError     string     `gorm:"type:text" json:"last_error"`
	SentAt        *time.Time `json:"sent_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
