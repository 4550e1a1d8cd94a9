package service

import (
	"context"

	"purchaseflow/internal/repository"
)

type AuditLogResponse struct {
	ID          string `json:"id"`
	Actor       string `json:"actor"`
	Action      string `json:"action"`
	BusinessKey string `json:"business_key"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
	Details     string `json:"details"`
	CreatedAt   string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, businessKey string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	audits repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(audits repository.AuditRepository) AuditService {
	return &auditService{audits: audits}
}

// GetAuditLogs returns one page of the lifecycle trail, newest first.
func (s *auditService) GetAuditLogs(ctx context.Context, businessKey string, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.audits.List(ctx, businessKey, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		actor := l.Actor
		if actor == "" {
			actor = "System"
		}
		res = append(res, AuditLogResponse{
			ID:          l.ID.String(),
			Actor:       actor,
			Action:      l.Action,
			BusinessKey: l.BusinessKey,
			FromStatus:  string(l.FromStatus),
			ToStatus:    string(l.ToStatus),
			Details:     l.Details,
			CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
