// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a FamilyHub account profile.
//
// NOTE:
//   - Workspace membership is not stored on User. Use the members array of
//     the workspaces collection (members.user_id) to discover a user's workspaces.
//   - PersonalColor is owned by the user and only changed by the user themselves.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DisplayName   string             `bson:"display_name" json:"display_name"`
	DisplayNameCI string             `bson:"display_name_ci" json:"-"`
	Email         string             `bson:"email" json:"email"`
	PersonalColor string             `bson:"personal_color,omitempty" json:"personal_color,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
