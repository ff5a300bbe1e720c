// internal/app/features/sharing/errors.go
package sharing

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/familyhub/internal/domain/apperr"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotAuthenticated:
		return http.StatusUnauthorized
	case apperr.KindInsufficientPermissions:
		return http.StatusForbidden
	case apperr.KindInvalidWorkspace, apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindInvalidInviteCode:
		return http.StatusNotFound
	case apperr.KindInviteLinkExpired:
		return http.StatusGone
	case apperr.KindCannotRemoveOwner:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as {"error": kind, "message": text}. Internal
// failures are logged and answered with a generic message.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal && log != nil {
		log.Error("sharing request failed", zap.Error(err))
	}
	writeJSON(w, statusFor(kind), errorResponse{
		Error:   string(kind),
		Message: apperr.Message(err),
	})
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error:   string(apperr.KindInvalidWorkspace),
		Message: "workspace not found",
	})
}
