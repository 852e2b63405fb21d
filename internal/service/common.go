package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"backoffice/internal/model"
	"backoffice/internal/repository"
	ws "backoffice/internal/websocket"
	"backoffice/pkg/apperror"
	"backoffice/pkg/pagination"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"
const dateLayout = "2006-01-02"

// Notifier pushes toast notifications to connected clients. The websocket
// hub implements it.
type Notifier interface {
	Notify(ctx context.Context, n ws.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, ws.Notification) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// ListQuery is the paging and search input shared by list operations
type ListQuery struct {
	Page   int
	Limit  int
	Search string
}

func (q ListQuery) params() pagination.Params {
	p := pagination.New(q.Page, q.Limit)
	p.Search = q.Search
	return p
}

// filter converts q into a repository filter scoped to actor
func (q ListQuery) filter(actor *model.User) repository.ListFilter {
	p := q.params()
	return repository.ListFilter{OwnerID: ownerScope(actor), Search: p.Search, Offset: p.Offset, Limit: p.Limit}
}

// ownerScope limits listings to the actor's rows unless the actor is a
// Super Admin.
func ownerScope(actor *model.User) *uint {
	if actor.IsSuperAdmin() {
		return nil
	}
	id := actor.ID
	return &id
}

// checkOwner rejects access to rows owned by someone else
func checkOwner(actor *model.User, ownerID uint) error {
	if actor.IsSuperAdmin() || actor.ID == ownerID {
		return nil
	}
	return apperror.Forbidden("access denied: not the owner of this record")
}

func actorID(actor *model.User) *uint {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}

// translate maps repository errors to the application taxonomy. Errors that
// already carry a kind pass through unchanged.
func translate(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if repository.IsNotFound(err) {
		return apperror.NotFound(entity)
	}
	if repository.IsDuplicateKey(err) {
		return apperror.Conflict(entity+" already exists", err)
	}
	if repository.IsForeignKeyViolation(err) {
		return apperror.Conflict(entity+" is still referenced by other records", err)
	}
	return apperror.Storage("failed to "+op, err)
}

// writeAudit records action inside the caller's transaction
func writeAudit(ctx context.Context, repo repository.AuditRepository, actor *model.User, action, entityType string, entityID uint, entityName string, details interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	entry := &model.AuditLog{
		UserID:     actorID(actor),
		Action:     action,
		EntityType: entityType,
		EntityID:   strconv.FormatUint(uint64(entityID), 10),
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
