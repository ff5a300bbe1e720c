// internal/app/features/auditlog/list.go
package auditlog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/familyhub/internal/app/store/audit"
	"github.com/dalemusser/familyhub/internal/app/system/auth"
	"github.com/dalemusser/familyhub/internal/app/system/limits"
	"github.com/dalemusser/familyhub/internal/app/system/paging"
	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	"github.com/dalemusser/familyhub/internal/domain/apperr"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /workspaces/{id}/activity. It lists the workspace's
// sharing events newest first, optionally narrowed by ?event_type=, and
// paged with ?start= and ?limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	viewer := su.ObjectID()

	wsID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   string(apperr.KindInvalidWorkspace),
			Message: "invalid workspace id",
		})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "activity list")
	defer cancel()

	ws, err := h.Workspaces.Workspace(ctx, wsID)
	if err != nil && !errors.Is(err, apperr.ErrInvalidWorkspace) {
		h.Log.Error("activity: load workspace", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   string(apperr.KindInternal),
			Message: apperr.Message(err),
		})
		return
	}
	if err != nil || !ws.HasMember(viewer) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   string(apperr.KindInvalidWorkspace),
			Message: "workspace not found",
		})
		return
	}

	page := paging.Parse(r, limits.MaxActivityPage)
	filter := audit.QueryFilter{
		WorkspaceID: &ws.ID,
		Category:    audit.CategorySharing,
		EventType:   strings.TrimSpace(query.Get(r, "event_type")),
		Limit:       page.Limit(),
		Offset:      page.Offset(),
	}

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.Log.Error("activity: query events", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   string(apperr.KindInternal),
			Message: "internal error",
		})
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("activity: count events", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   string(apperr.KindInternal),
			Message: "internal error",
		})
		return
	}

	names := h.userNames(r, events)

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			EventType: e.EventType,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = names[*e.ActorID]
		}
		if e.UserID != nil {
			item.UserID = e.UserID.Hex()
			item.UserName = names[*e.UserID]
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, listResponse{
		Items: items,
		Range: paging.ComputeRange(page, len(items), total),
	})
}

// userNames batch-loads display names for everyone the events mention.
// Lookup failures only cost the names.
func (h *Handler) userNames(r *http.Request, events []audit.Event) map[primitive.ObjectID]string {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	for _, e := range events {
		add(e.ActorID)
		add(e.UserID)
	}

	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 || h.Users == nil {
		return names
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "activity names")
	defer cancel()
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("activity: resolve user names", zap.Error(err))
		return names
	}
	for id, u := range users {
		names[id] = u.DisplayName
	}
	return names
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
