// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/familyhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the activity feed. The caller mounts it below a path that
// carries the workspace as {id} (bootstrap uses /api/workspaces/{id}/activity).
//
// Any member of the workspace may read its history.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
	})

	return r
}
