package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ItemKind is the kind of content item shown in a workspace.
type ItemKind string

const (
	ItemEvent ItemKind = "event"
	ItemTodo  ItemKind = "todo"
	ItemNote  ItemKind = "note"
)

// Valid reports whether k is a known item kind.
func (k ItemKind) Valid() bool {
	return k == ItemEvent || k == ItemTodo || k == ItemNote
}

// Item is the part of an event, todo or note that affects how it is colored.
// Color is a direct per-item override and is only honored for events.
type Item struct {
	Kind        ItemKind            `json:"kind"`
	Color       string              `json:"color,omitempty"`
	WorkspaceID *primitive.ObjectID `json:"workspace_id,omitempty"`
}
