// internal/app/features/sharing/invite.go
package sharing

import (
	"net/http"
	"net/url"

	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	"github.com/dalemusser/familyhub/internal/domain/apperr"
	"github.com/go-chi/chi/v5"
)

// ServeInvite handles GET /workspaces/{id}/invite. It returns the current
// share link, creating a fresh one when none is valid. Personal workspaces
// have nothing to share and get 204.
func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	user, _ := actor(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "share link")
	defer cancel()

	ws, ok := h.loadWorkspace(ctx, w, r, user)
	if !ok {
		return
	}
	share, err := h.Svc.ShareLink(ctx, ws, user)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if share.URL == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toInviteJSON(share))
}

// HandleRotateInvite handles POST /workspaces/{id}/invite, replacing the
// current link even if it is still valid.
func (h *Handler) HandleRotateInvite(w http.ResponseWriter, r *http.Request) {
	user, _ := actor(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "rotate link")
	defer cancel()

	ws, ok := h.loadWorkspace(ctx, w, r, user)
	if !ok {
		return
	}
	share, err := h.Svc.RotateLink(ctx, ws, user)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInviteJSON(share))
}

// HandleJoin handles POST /join/{code} and POST /join with a JSON body
// {"link": "familyhub://join/<code>"}.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	user, _ := actor(r)

	raw := chi.URLParam(r, "code")
	if raw != "" {
		if unescaped, err := url.PathUnescape(raw); err == nil {
			raw = unescaped
		}
	} else {
		var req joinRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, h.Log, err)
			return
		}
		raw = req.Link
	}
	if raw == "" {
		writeError(w, h.Log, apperr.ErrInvalidInviteCode)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "join workspace")
	defer cancel()

	ws, err := h.Svc.Join(ctx, raw, user)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkspaceJSON(ws, user))
}
