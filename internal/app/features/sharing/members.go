// internal/app/features/sharing/members.go
package sharing

import (
	"net/http"

	"github.com/dalemusser/familyhub/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	"github.com/dalemusser/familyhub/internal/domain/apperr"
)

// ServeMembers handles GET /workspaces/{id}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	user, _ := actor(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list members")
	defer cancel()

	ws, ok := h.loadWorkspace(ctx, w, r, user)
	if !ok {
		return
	}
	list, err := h.Svc.ListMembers(ctx, ws)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	out := make([]memberJSON, 0, len(list))
	for _, mi := range list {
		out = append(out, toMemberJSON(mi))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRemoveMember handles DELETE /workspaces/{id}/members/{userID}.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	user, _ := actor(r)
	target, ok := objectIDParam(r, "userID")
	if !ok {
		writeError(w, h.Log, apperr.New(apperr.KindInvalidInput, "invalid user id"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "remove member")
	defer cancel()

	ws, ok := h.loadWorkspace(ctx, w, r, user)
	if !ok {
		return
	}
	if err := h.Svc.RemoveMember(ctx, target, ws, user); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleChangeRole handles PUT /workspaces/{id}/members/{userID}/role.
func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	user, _ := actor(r)
	target, ok := objectIDParam(r, "userID")
	if !ok {
		writeError(w, h.Log, apperr.New(apperr.KindInvalidInput, "invalid user id"))
		return
	}
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	role, err := workspacepolicy.ParseRole(req.Role)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "change role")
	defer cancel()

	ws, ok := h.loadWorkspace(ctx, w, r, user)
	if !ok {
		return
	}
	if err := h.Svc.ChangeRole(ctx, ws, target, role, user); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetMyColor handles PUT /workspaces/{id}/members/me/color.
func (h *Handler) HandleSetMyColor(w http.ResponseWriter, r *http.Request) {
	user, _ := actor(r)
	var req colorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set member color")
	defer cancel()

	ws, ok := h.loadWorkspace(ctx, w, r, user)
	if !ok {
		return
	}
	if err := h.Svc.SetMemberColor(ctx, ws, user, req.Color); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
