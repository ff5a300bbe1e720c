// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/dalemusser/familyhub/internal/app/system/auditlog"
	"github.com/dalemusser/familyhub/internal/app/system/auth"
	"github.com/dalemusser/familyhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/familyhub/internal/app/system/limits"
	"github.com/dalemusser/familyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"go.uber.org/zap"
)

// UserUpserter finds or creates the user for an email address.
// *userstore.Store satisfies it.
type UserUpserter interface {
	UpsertByEmail(ctx context.Context, email, displayName string) (models.User, bool, error)
}

// Handler implements the development sign-in. Production identity comes
// from an external provider; this route is only mounted when dev_login is
// enabled.
type Handler struct {
	Users      UserUpserter
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger

	// Limiter throttles sign-in attempts per client IP. Nil disables it.
	Limiter *ratelimit.Limiter
}

func NewHandler(users UserUpserter, sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Log:        logger,
	}
}

type loginRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type loginResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Created bool   `json:"created"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/dev-login                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDevLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxLoginBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, created, err := h.Users.UpsertByEmail(ctx, email, htmlsanitize.PlainText(req.DisplayName))
	if err != nil {
		h.Log.Error("dev-login: upsert user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("dev-login: save session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}
	h.AuditLog.SignIn(ctx, r, u.ID, "dev")

	h.Log.Info("user signed in",
		zap.String("user_id", u.ID.Hex()),
		zap.Bool("created", created))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{
		ID:      u.ID.Hex(),
		Name:    u.DisplayName,
		Email:   u.Email,
		Created: created,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_input", "message": msg})
}
