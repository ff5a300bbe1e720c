// internal/app/features/sharing/colors.go
package sharing

import (
	"net/http"

	"github.com/dalemusser/familyhub/internal/app/system/colors"
	"github.com/dalemusser/familyhub/internal/app/system/limits"
	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	"github.com/dalemusser/familyhub/internal/domain/apperr"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleSetPersonalColor handles PUT /me/color.
func (h *Handler) HandleSetPersonalColor(w http.ResponseWriter, r *http.Request) {
	user, _ := actor(r)
	var req colorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set personal color")
	defer cancel()

	if err := h.Svc.SetPersonalColor(ctx, user, req.Color); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResolveColors handles POST /colors/resolve. It returns one display
// color per requested item, in request order.
func (h *Handler) HandleResolveColors(w http.ResponseWriter, r *http.Request) {
	user, su := actor(r)
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if len(req.Items) > limits.MaxResolveItems {
		writeError(w, h.Log, apperr.New(apperr.KindInvalidInput, "at most %d items per request", limits.MaxResolveItems))
		return
	}

	items := make([]models.Item, len(req.Items))
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for i, it := range req.Items {
		if !it.Kind.Valid() {
			writeError(w, h.Log, apperr.New(apperr.KindInvalidInput, "item %d: unknown kind %q", i, it.Kind))
			return
		}
		items[i] = models.Item{Kind: it.Kind, Color: it.Color}
		if it.WorkspaceID == "" {
			continue
		}
		// An unparsable id is treated like a workspace that cannot be found.
		oid, err := primitive.ObjectIDFromHex(it.WorkspaceID)
		if err != nil {
			oid = primitive.NilObjectID
		}
		items[i].WorkspaceID = &oid
		if _, dup := seen[oid]; !dup && !oid.IsZero() {
			seen[oid] = struct{}{}
			ids = append(ids, oid)
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "resolve colors")
	defer cancel()

	byID, err := h.Workspaces.GetByIDs(ctx, ids)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	viewer := colors.Viewer{UserID: user, PersonalColor: su.PersonalColor}
	out := resolveResponse{Colors: make([]string, len(items))}
	for i, it := range items {
		var ws *models.Workspace
		if it.WorkspaceID != nil {
			// Workspaces the viewer does not belong to resolve like unknown ids.
			if found, ok := byID[*it.WorkspaceID]; ok && found.HasMember(user) {
				ws = &found
			}
		}
		out.Colors[i] = h.Resolver.Resolve(it, ws, viewer)
	}
	writeJSON(w, http.StatusOK, out)
}
