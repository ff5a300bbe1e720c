// internal/app/features/sharing/workspaces.go
package sharing

import (
	"net/http"

	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	"github.com/dalemusser/familyhub/internal/domain/models"
)

// HandleCreate handles POST /workspaces.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := actor(r)
	var req createWorkspaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	kind := models.WorkspaceKind(req.Kind)
	if kind == "" {
		kind = models.KindShared
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create workspace")
	defer cancel()

	ws, err := h.Svc.CreateWorkspace(ctx, user, req.Name, kind, req.Color, req.Icon)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkspaceJSON(ws, user))
}

// ServeList handles GET /workspaces. ?archived=true includes archived ones.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	user, _ := actor(r)
	includeArchived := r.URL.Query().Get("archived") == "true"

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list workspaces")
	defer cancel()

	list, err := h.Svc.ListWorkspaces(ctx, user, includeArchived)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	out := make([]workspaceJSON, 0, len(list))
	for _, ws := range list {
		out = append(out, toWorkspaceJSON(ws, user))
	}
	writeJSON(w, http.StatusOK, out)
}

// ServeWorkspace handles GET /workspaces/{id}.
func (h *Handler) ServeWorkspace(w http.ResponseWriter, r *http.Request) {
	user, _ := actor(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get workspace")
	defer cancel()

	ws, ok := h.loadWorkspace(ctx, w, r, user)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toWorkspaceJSON(ws, user))
}

// HandleArchive handles POST /workspaces/{id}/archive.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

// HandleUnarchive handles DELETE /workspaces/{id}/archive.
func (h *Handler) HandleUnarchive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *Handler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	user, _ := actor(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "archive workspace")
	defer cancel()

	ws, ok := h.loadWorkspace(ctx, w, r, user)
	if !ok {
		return
	}
	if err := h.Svc.SetArchived(ctx, ws, user, archived); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
