package service

import (
	"fmt"
	"strings"
	"time"

	"purchaseflow/internal/model"

	"github.com/google/uuid"
)

func newNotification(req *model.PurchaseRequest, kind, to, subject, body string, now time.Time) model.Notification {
	return model.Notification{
		ID:            uuid.New(),
		BusinessKey:   req.BusinessKey,
		Kind:          kind,
		Recipient:     to,
		Subject:       subject,
		Body:          body,
		Status:        model.DeliveryPending,
		NextAttemptAt: now,
	}
}

func approvalRequestedNote(req *model.PurchaseRequest, approver string, now time.Time) model.Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "A purchase request needs your approval.\n\n")
	fmt.Fprintf(&b, "Request:     %s\n", req.BusinessKey)
	fmt.Fprintf(&b, "Requester:   %s <%s>, %s\n", req.RequesterName, req.RequesterEmail, req.Department)
	fmt.Fprintf(&b, "Amount:      %s\n", req.FormattedAmount())
	fmt.Fprintf(&b, "Category:    %s (%s priority)\n", req.Category, req.Priority)
	fmt.Fprintf(&b, "Supplier:    %s\n", req.SupplierName)
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	fmt.Fprintf(&b, "Routing:     %s\n", req.RouteReason)
	subject := fmt.Sprintf("[%s] Approval required: %s", req.ApprovalTier.DisplayName(), req.BusinessKey)
	return newNotification(req, model.NotifyApprovalRequested, approver, subject, b.String(), now)
}

// ReminderDTO is the reminder interface payload.
type ReminderDTO struct {
	AssigneeContact string  `json:"assigneeContact"`
	RequestID       string  `json:"requestId" binding:"required"`
	CurrentTaskName string  `json:"currentTaskName"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
}

func reminderNote(req *model.PurchaseRequest, r ReminderDTO, now time.Time) model.Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "Reminder #%d: the task %q is still waiting for you.\n\n", req.ReminderCount, r.CurrentTaskName)
	fmt.Fprintf(&b, "Request:     %s\n", req.BusinessKey)
	fmt.Fprintf(&b, "Amount:      %s %.2f\n", req.Currency, r.Amount)
	fmt.Fprintf(&b, "Description: %s\n", r.Description)
	subject := fmt.Sprintf("Reminder: %s pending for %s", r.CurrentTaskName, req.BusinessKey)
	return newNotification(req, model.NotifyReminder, r.AssigneeContact, subject, b.String(), now)
}

func finalDecisionNote(req *model.PurchaseRequest, now time.Time) model.Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "Your purchase request %s is now %s.\n\n", req.BusinessKey, req.Status)
	fmt.Fprintf(&b, "Amount:      %s\n", req.FormattedAmount())
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	if req.ApprovedBy != "" {
		fmt.Fprintf(&b, "Decided by:  %s\n", req.ApprovedBy)
	}
	if req.RejectionReason != "" {
		fmt.Fprintf(&b, "Reason:      %s\n", req.RejectionReason)
	}
	if req.Comments != "" {
		fmt.Fprintf(&b, "Comments:    %s\n", req.Comments)
	}
	subject := fmt.Sprintf("Purchase request %s %s", req.BusinessKey, strings.ToLower(string(req.Status)))
	return newNotification(req, model.NotifyFinalDecision, req.RequesterEmail, subject, b.String(), now)
}
