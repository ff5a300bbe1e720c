package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/familyhub/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given display name and email.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		DisplayName:   name,
		DisplayNameCI: text.Fold(name),
		Email:         email,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateSharedWorkspace creates a shared workspace owned by ownerID, with
// ownerID as its only member.
func (f *Fixtures) CreateSharedWorkspace(ctx context.Context, name string, ownerID primitive.ObjectID) models.Workspace {
	f.t.Helper()
	return f.createWorkspace(ctx, name, models.KindShared, ownerID)
}

// CreatePersonalWorkspace creates a personal workspace for ownerID.
func (f *Fixtures) CreatePersonalWorkspace(ctx context.Context, name string, ownerID primitive.ObjectID) models.Workspace {
	f.t.Helper()
	return f.createWorkspace(ctx, name, models.KindPersonal, ownerID)
}

func (f *Fixtures) createWorkspace(ctx context.Context, name string, kind models.WorkspaceKind, ownerID primitive.ObjectID) models.Workspace {
	f.t.Helper()

	now := time.Now().UTC()
	ws := models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Kind:      kind,
		OwnerID:   ownerID,
		Color:     "#64B5F6",
		Members:   []models.Member{workspacepolicy.NewMember(ownerID, models.RoleOwner, now)},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("workspaces").InsertOne(ctx, ws); err != nil {
		f.t.Fatalf("failed to create test workspace: %v", err)
	}
	return ws
}

// AddMember appends a member with the given role directly to the workspace document.
func (f *Fixtures) AddMember(ctx context.Context, wsID, userID primitive.ObjectID, role models.Role) {
	f.t.Helper()

	m := workspacepolicy.NewMember(userID, role, time.Now())
	_, err := f.db.Collection("workspaces").UpdateByID(ctx, wsID, bson.M{
		"$push": bson.M{"members": m},
	})
	if err != nil {
		f.t.Fatalf("failed to add test member: %v", err)
	}
}
