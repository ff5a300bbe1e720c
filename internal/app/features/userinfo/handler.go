// internal/app/features/userinfo/handler.go
package userinfo

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/familyhub/internal/app/system/auth"
)

// Handler serves user information for the current session.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type userInfo struct {
	Authenticated bool   `json:"authenticated"`
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	PersonalColor string `json:"personal_color,omitempty"`
}

// ServeUserInfo returns JSON with the current user's authentication status
// and identity. Anonymous callers get 200 with authenticated=false.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, ok := auth.CurrentUser(r)
	if !ok {
		_ = json.NewEncoder(w).Encode(userInfo{})
		return
	}

	_ = json.NewEncoder(w).Encode(userInfo{
		Authenticated: true,
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		PersonalColor: user.PersonalColor,
	})
}
