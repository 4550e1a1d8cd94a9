package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSubmitRequest     = "SUBMIT_PURCHASE_REQUEST"
	ActionBeginApproval     = "BEGIN_APPROVAL"
	ActionApproveRequest    = "APPROVE_REQUEST"
	ActionRejectRequest     = "REJECT_REQUEST"
	ActionCancelRequest     = "CANCEL_REQUEST"
	ActionSendReminder      = "SEND_REMINDER"
	ActionLifecycleConflict = "LIFECYCLE_CONFLICT" // signal ignored because the request was already terminal
)

// AuditLog tracks Who, What, and When for every lifecycle change
type AuditLog struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Actor       string    `gorm:"type:varchar(255);index" json:"actor"` // approver identity, or SYSTEM
	Action      string    `gorm:"type:varchar(50);not null;index" json:"action"`
	BusinessKey string    `gorm:"type:varchar(40);index" json:"business_key"`
	FromStatus  Status    `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus    Status    `gorm:"type:varchar(20)" json:"to_status,omitempty"`
	Details     string    `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
