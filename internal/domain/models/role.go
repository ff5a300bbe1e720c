package models

// Role is a member's role within a workspace. The set of roles is closed;
// values arriving from outside must go through workspacepolicy.ParseRole.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Roles lists every valid role, most privileged first.
var Roles = []Role{RoleOwner, RoleAdmin, RoleEditor, RoleViewer}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// PermissionSet is the capability set a member holds in a workspace.
type PermissionSet struct {
	CanCreateEvents bool `bson:"can_create_events" json:"can_create_events"`
	CanEditEvents   bool `bson:"can_edit_events" json:"can_edit_events"`
	CanDeleteEvents bool `bson:"can_delete_events" json:"can_delete_events"`

	CanCreateTodos bool `bson:"can_create_todos" json:"can_create_todos"`
	CanEditTodos   bool `bson:"can_edit_todos" json:"can_edit_todos"`
	CanDeleteTodos bool `bson:"can_delete_todos" json:"can_delete_todos"`

	CanCreateNotes bool `bson:"can_create_notes" json:"can_create_notes"`
	CanEditNotes   bool `bson:"can_edit_notes" json:"can_edit_notes"`
	CanDeleteNotes bool `bson:"can_delete_notes" json:"can_delete_notes"`

	CanInviteMembers bool `bson:"can_invite_members" json:"can_invite_members"`
}

// ContentCapabilities returns the nine content capabilities in a fixed order:
// create/edit/delete for events, then todos, then notes.
func (p PermissionSet) ContentCapabilities() [9]bool {
	return [9]bool{
		p.CanCreateEvents, p.CanEditEvents, p.CanDeleteEvents,
		p.CanCreateTodos, p.CanEditTodos, p.CanDeleteTodos,
		p.CanCreateNotes, p.CanEditNotes, p.CanDeleteNotes,
	}
}
