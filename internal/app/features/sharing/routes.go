// internal/app/features/sharing/routes.go
package sharing

import (
	"net/http"

	"github.com/dalemusser/familyhub/internal/app/system/auth"
	"github.com/dalemusser/familyhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the sharing API under whatever base path the caller chooses
// (typically "/api" from bootstrap). Every route requires a signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	joinLimit := func(next http.Handler) http.Handler { return next }
	if h.JoinLimiter != nil {
		joinLimit = ratelimit.Middleware(h.JoinLimiter, userKey)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/workspaces", h.ServeList)
		pr.Post("/workspaces", h.HandleCreate)
		pr.Get("/workspaces/{id}", h.ServeWorkspace)

		pr.Get("/workspaces/{id}/invite", h.ServeInvite)
		pr.Post("/workspaces/{id}/invite", h.HandleRotateInvite)
		pr.With(joinLimit).Post("/join", h.HandleJoin)
		pr.With(joinLimit).Post("/join/{code}", h.HandleJoin)

		pr.Get("/workspaces/{id}/members", h.ServeMembers)
		pr.Put("/workspaces/{id}/members/me/color", h.HandleSetMyColor)
		pr.Delete("/workspaces/{id}/members/{userID}", h.HandleRemoveMember)
		pr.Put("/workspaces/{id}/members/{userID}/role", h.HandleChangeRole)

		pr.Post("/workspaces/{id}/archive", h.HandleArchive)
		pr.Delete("/workspaces/{id}/archive", h.HandleUnarchive)

		pr.Put("/me/color", h.HandleSetPersonalColor)
		pr.Post("/colors/resolve", h.HandleResolveColors)
	})

	return r
}

// userKey counts join attempts per signed-in user.
func userKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return "user:" + u.ID
	}
	return ""
}
