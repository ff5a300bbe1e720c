package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkspaceKind distinguishes private workspaces from collaborative ones.
type WorkspaceKind string

const (
	KindPersonal WorkspaceKind = "personal"
	KindShared   WorkspaceKind = "shared"
)

// Valid reports whether k is one of the known workspace kinds.
func (k WorkspaceKind) Valid() bool {
	return k == KindPersonal || k == KindShared
}

// Workspace is a named container for events, todos and notes.
//
// Members and the current invite link are embedded so that joining,
// leaving and link regeneration are single-document updates.
//
// Invariants:
//   - a personal workspace has exactly one member (its owner) and no invite link
//   - exactly one member of a shared workspace holds RoleOwner, and that
//     member's UserID equals OwnerID
type Workspace struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name   string        `bson:"name" json:"name"`
	NameCI string        `bson:"name_ci" json:"-"` // folded for sorting/search
	Kind   WorkspaceKind `bson:"kind" json:"kind"`

	OwnerID primitive.ObjectID `bson:"owner_id" json:"owner_id"`

	// Color is the workspace's default display color (hex). Optional.
	Color string `bson:"color,omitempty" json:"color,omitempty"`
	Icon  string `bson:"icon,omitempty" json:"icon,omitempty"`

	Members    []Member    `bson:"members" json:"members"`
	InviteLink *InviteLink `bson:"invite_link,omitempty" json:"invite_link,omitempty"`

	Archived bool `bson:"archived" json:"archived"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsShared reports whether the workspace is collaborative.
func (w Workspace) IsShared() bool {
	return w.Kind == KindShared
}

// IsOwner reports whether userID owns the workspace.
func (w Workspace) IsOwner(userID primitive.ObjectID) bool {
	return !userID.IsZero() && w.OwnerID == userID
}

// Member returns the member record for userID, if any.
func (w Workspace) Member(userID primitive.ObjectID) (Member, bool) {
	for _, m := range w.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// HasMember reports whether userID is a member of the workspace.
func (w Workspace) HasMember(userID primitive.ObjectID) bool {
	_, ok := w.Member(userID)
	return ok
}

// Member associates a user with a workspace.
//
// Permissions is stored denormalized so that per-member overrides can be
// introduced later; readers that make decisions should use
// EffectivePermissions, which is derived from Role.
type Member struct {
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role        Role               `bson:"role" json:"role"`
	Permissions PermissionSet      `bson:"permissions" json:"permissions"`
	JoinedAt    time.Time          `bson:"joined_at" json:"joined_at"`
	CustomColor string             `bson:"custom_color,omitempty" json:"custom_color,omitempty"`
}

// InviteLink is the single current shareable join code of a shared workspace.
// Generating a new link replaces the old one, which makes the old code
// unredeemable immediately.
type InviteLink struct {
	Code       string             `bson:"code" json:"code"`
	CreatedBy  primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	ExpiresAt  time.Time          `bson:"expires_at" json:"expires_at"`
	UsageCount int                `bson:"usage_count" json:"usage_count"`
}
