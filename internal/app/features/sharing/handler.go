// internal/app/features/sharing/handler.go
package sharing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/familyhub/internal/app/system/auth"
	"github.com/dalemusser/familyhub/internal/app/system/colors"
	"github.com/dalemusser/familyhub/internal/app/system/limits"
	"github.com/dalemusser/familyhub/internal/app/system/membership"
	"github.com/dalemusser/familyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/familyhub/internal/domain/apperr"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// WorkspaceLookup loads many workspaces at once for color resolution.
type WorkspaceLookup interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Workspace, error)
}

// Handler serves the workspace sharing JSON API.
type Handler struct {
	Svc        *membership.Service
	Resolver   *colors.Resolver
	Workspaces WorkspaceLookup
	Log        *zap.Logger

	// JoinLimiter throttles invite redemption per user. Nil disables it.
	JoinLimiter *ratelimit.Limiter
}

// NewHandler constructs a sharing Handler.
func NewHandler(svc *membership.Service, resolver *colors.Resolver, workspaces WorkspaceLookup, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:        svc,
		Resolver:   resolver,
		Workspaces: workspaces,
		Log:        logger,
	}
}

// actor returns the signed-in user's id or the zero id.
func actor(r *http.Request) (primitive.ObjectID, *auth.SessionUser) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, nil
	}
	return u.ObjectID(), u
}

// objectIDParam parses a hex ObjectID from a chi URL parameter.
func objectIDParam(r *http.Request, name string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	return oid, err == nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.New(apperr.KindInvalidInput, "invalid request body")
	}
	return nil
}

// loadWorkspace resolves the {id} parameter to a workspace the actor may
// see. Unknown ids and workspaces the actor is not part of both yield 404.
func (h *Handler) loadWorkspace(ctx context.Context, w http.ResponseWriter, r *http.Request, user primitive.ObjectID) (models.Workspace, bool) {
	id, ok := objectIDParam(r, "id")
	if !ok {
		writeError(w, h.Log, apperr.New(apperr.KindInvalidWorkspace, "invalid workspace id"))
		return models.Workspace{}, false
	}
	ws, err := h.Svc.Workspace(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidWorkspace) {
			writeNotFound(w)
			return models.Workspace{}, false
		}
		writeError(w, h.Log, err)
		return models.Workspace{}, false
	}
	if !ws.HasMember(user) {
		writeNotFound(w)
		return models.Workspace{}, false
	}
	return ws, true
}
