// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	"github.com/dalemusser/familyhub/internal/app/store/audit"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EventQuerier reads recorded audit events. *audit.Store satisfies it.
type EventQuerier interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

// WorkspaceGetter loads a workspace by id. *membership.Service satisfies it.
type WorkspaceGetter interface {
	Workspace(ctx context.Context, id primitive.ObjectID) (models.Workspace, error)
}

// UserLookup resolves actor and subject names for display.
type UserLookup interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
}

// Handler serves a workspace's sharing history to its members.
type Handler struct {
	Events     EventQuerier
	Workspaces WorkspaceGetter
	Users      UserLookup
	Log        *zap.Logger
}

// NewHandler constructs an activity feed handler.
func NewHandler(events EventQuerier, workspaces WorkspaceGetter, users UserLookup, logger *zap.Logger) *Handler {
	return &Handler{
		Events:     events,
		Workspaces: workspaces,
		Users:      users,
		Log:        logger,
	}
}
