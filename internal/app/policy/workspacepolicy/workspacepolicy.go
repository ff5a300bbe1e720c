// Package workspacepolicy provides authorization policies for workspace sharing.
//
// Authorization rules:
//   - Owners and admins can create, edit and delete all content and invite members
//   - Editors can create, edit and delete all content but cannot invite
//   - Viewers can only read
//   - Only the owner can remove members or change roles
package workspacepolicy

import (
	"strings"
	"time"

	"github.com/dalemusser/familyhub/internal/domain/apperr"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// allContent is the full set of content capabilities without invite rights.
var allContent = models.PermissionSet{
	CanCreateEvents: true, CanEditEvents: true, CanDeleteEvents: true,
	CanCreateTodos: true, CanEditTodos: true, CanDeleteTodos: true,
	CanCreateNotes: true, CanEditNotes: true, CanDeleteNotes: true,
}

// PermissionsForRole returns the default capability set for role.
// An invalid role yields the empty set.
func PermissionsForRole(role models.Role) models.PermissionSet {
	switch role {
	case models.RoleOwner, models.RoleAdmin:
		p := allContent
		p.CanInviteMembers = true
		return p
	case models.RoleEditor:
		return allContent
	default:
		return models.PermissionSet{}
	}
}

// ParseRole converts user input into a Role, rejecting anything outside
// the closed set of roles.
func ParseRole(s string) (models.Role, error) {
	r := models.Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", apperr.New(apperr.KindInvalidInput, "unknown role %q", s)
	}
	return r, nil
}

// NewMember builds a member record whose stored permissions are derived
// from role.
func NewMember(userID primitive.ObjectID, role models.Role, joinedAt time.Time) models.Member {
	return models.Member{
		UserID:      userID,
		Role:        role,
		Permissions: PermissionsForRole(role),
		JoinedAt:    joinedAt.UTC(),
	}
}

// EffectivePermissions recomputes a member's permissions from its role.
// Stored permission sets are a projection and are not trusted for decisions.
func EffectivePermissions(m models.Member) models.PermissionSet {
	return PermissionsForRole(m.Role)
}

// CanInvite reports whether userID may generate an invite link for ws:
// the owner always can, other members only if their role grants it.
func CanInvite(ws models.Workspace, userID primitive.ObjectID) bool {
	if ws.IsOwner(userID) {
		return true
	}
	m, ok := ws.Member(userID)
	if !ok {
		return false
	}
	return EffectivePermissions(m).CanInviteMembers
}

// CanManageMembers reports whether userID may remove members or change
// roles in ws. Only the owner can.
func CanManageMembers(ws models.Workspace, userID primitive.ObjectID) bool {
	return ws.IsOwner(userID)
}

// CanView reports whether userID may see ws at all.
func CanView(ws models.Workspace, userID primitive.ObjectID) bool {
	return ws.IsOwner(userID) || ws.HasMember(userID)
}
