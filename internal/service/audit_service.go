package service

import (
	"context"
	"strconv"

	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"
)

type AuditLogResponse struct {
	ID         uint   `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// AuditListQuery narrows the audit trail to one entity type
type AuditListQuery struct {
	ListQuery
	EntityType string
}

type AuditService interface {
	List(ctx context.Context, actor *model.User, q AuditListQuery) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// List pages the audit trail newest first, with the acting users preloaded
func (s *auditService) List(ctx context.Context, actor *model.User, q AuditListQuery) ([]AuditLogResponse, int64, error) {
	if err := permission.Check(actor, permission.Rule{Role: model.LevelAdmin}); err != nil {
		return nil, 0, err
	}
	p := q.params()
	logs, total, err := s.repo.List(ctx, q.EntityType, p.Offset, p.Limit)
	if err != nil {
		return nil, 0, translate(err, "audit log", "list audit logs")
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		userName := "System"
		userID := ""
		if l.User != nil {
			userName = l.User.Name
		}
		if l.UserID != nil {
			userID = strconv.FormatUint(uint64(*l.UserID), 10)
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID,
			UserID:     userID,
			UserName:   userName,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return res, total, nil
}
