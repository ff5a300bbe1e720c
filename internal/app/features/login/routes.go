// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/familyhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the dev sign-in. Attempts are throttled per client IP when
// the handler carries a Limiter.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	if h.Limiter != nil {
		r.Use(ratelimit.Middleware(h.Limiter, nil))
	}
	r.Post("/", h.HandleDevLogin)
	return r
}
