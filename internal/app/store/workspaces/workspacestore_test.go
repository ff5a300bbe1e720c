package workspacestore_test

import (
	"testing"
	"time"

	"github.com/dalemusser/familyhub/internal/app/policy/workspacepolicy"
	workspacestore "github.com/dalemusser/familyhub/internal/app/store/workspaces"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"github.com/dalemusser/familyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newLink(creator primitive.ObjectID) models.InviteLink {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.InviteLink{
		Code:      primitive.NewObjectID().Hex(),
		CreatedBy: creator,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Workspace{
		Name:    "Smith Family",
		Kind:    models.KindShared,
		OwnerID: owner,
		Members: []models.Member{workspacepolicy.NewMember(owner, models.RoleOwner, time.Now())},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	found, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(found.Members) != 1 || found.Members[0].Role != models.RoleOwner {
		t.Errorf("unexpected members: %+v", found.Members)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if err != workspacestore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetInviteLink_ReplacesOldCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com")
	ws := fixtures.CreateSharedWorkspace(ctx, "Family", owner.ID)

	first := newLink(owner.ID)
	if err := store.SetInviteLink(ctx, ws.ID, first); err != nil {
		t.Fatalf("SetInviteLink failed: %v", err)
	}
	second := newLink(owner.ID)
	if err := store.SetInviteLink(ctx, ws.ID, second); err != nil {
		t.Fatalf("SetInviteLink failed: %v", err)
	}

	if _, err := store.FindByInviteCode(ctx, first.Code); err != workspacestore.ErrNotFound {
		t.Errorf("old code: expected ErrNotFound, got %v", err)
	}
	found, err := store.FindByInviteCode(ctx, second.Code)
	if err != nil {
		t.Fatalf("FindByInviteCode failed: %v", err)
	}
	if found.ID != ws.ID {
		t.Errorf("found wrong workspace: %s", found.ID.Hex())
	}
}

func TestStore_SetInviteLink_PersonalRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com")
	ws := fixtures.CreatePersonalWorkspace(ctx, "Mine", owner.ID)

	if err := store.SetInviteLink(ctx, ws.ID, newLink(owner.ID)); err != workspacestore.ErrNotShared {
		t.Errorf("expected ErrNotShared, got %v", err)
	}
}

func TestStore_AddMemberViaInvite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com")
	joiner := fixtures.CreateUser(ctx, "Joiner", "joiner@example.com")
	ws := fixtures.CreateSharedWorkspace(ctx, "Family", owner.ID)
	link := newLink(owner.ID)
	if err := store.SetInviteLink(ctx, ws.ID, link); err != nil {
		t.Fatalf("SetInviteLink failed: %v", err)
	}

	m := workspacepolicy.NewMember(joiner.ID, models.RoleEditor, time.Now())
	added, err := store.AddMemberViaInvite(ctx, ws.ID, link.Code, m)
	if err != nil {
		t.Fatalf("AddMemberViaInvite failed: %v", err)
	}
	if !added {
		t.Fatal("expected member to be added")
	}

	// Second attempt is a no-op.
	added, err = store.AddMemberViaInvite(ctx, ws.ID, link.Code, m)
	if err != nil {
		t.Fatalf("AddMemberViaInvite failed: %v", err)
	}
	if added {
		t.Error("expected duplicate add to be a no-op")
	}

	found, _ := store.GetByID(ctx, ws.ID)
	if len(found.Members) != 2 {
		t.Errorf("expected 2 members, got %d", len(found.Members))
	}
	if found.InviteLink == nil || found.InviteLink.UsageCount != 1 {
		t.Errorf("expected usage count 1, got %+v", found.InviteLink)
	}
}

func TestStore_AddMemberViaInvite_StaleCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com")
	ws := fixtures.CreateSharedWorkspace(ctx, "Family", owner.ID)
	if err := store.SetInviteLink(ctx, ws.ID, newLink(owner.ID)); err != nil {
		t.Fatalf("SetInviteLink failed: %v", err)
	}

	m := workspacepolicy.NewMember(primitive.NewObjectID(), models.RoleEditor, time.Now())
	added, err := store.AddMemberViaInvite(ctx, ws.ID, "not-the-code", m)
	if err != nil {
		t.Fatalf("AddMemberViaInvite failed: %v", err)
	}
	if added {
		t.Error("expected stale code to be rejected")
	}
}

func TestStore_RemoveMember_NeverRemovesOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com")
	other := fixtures.CreateUser(ctx, "Other", "other@example.com")
	ws := fixtures.CreateSharedWorkspace(ctx, "Family", owner.ID)
	fixtures.AddMember(ctx, ws.ID, other.ID, models.RoleEditor)

	removed, err := store.RemoveMember(ctx, ws.ID, owner.ID)
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if removed {
		t.Error("owner must not be removed")
	}

	removed, err = store.RemoveMember(ctx, ws.ID, other.ID)
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if !removed {
		t.Error("expected member to be removed")
	}

	found, _ := store.GetByID(ctx, ws.ID)
	if len(found.Members) != 1 || found.Members[0].UserID != owner.ID {
		t.Errorf("unexpected members after removal: %+v", found.Members)
	}
}

func TestStore_SetMemberRoleAndColor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com")
	other := fixtures.CreateUser(ctx, "Other", "other@example.com")
	ws := fixtures.CreateSharedWorkspace(ctx, "Family", owner.ID)
	fixtures.AddMember(ctx, ws.ID, other.ID, models.RoleEditor)

	perms := workspacepolicy.PermissionsForRole(models.RoleViewer)
	if err := store.SetMemberRole(ctx, ws.ID, other.ID, models.RoleViewer, perms); err != nil {
		t.Fatalf("SetMemberRole failed: %v", err)
	}
	if err := store.SetMemberColor(ctx, ws.ID, other.ID, "#FF0000"); err != nil {
		t.Fatalf("SetMemberColor failed: %v", err)
	}

	found, _ := store.GetByID(ctx, ws.ID)
	m, ok := found.Member(other.ID)
	if !ok {
		t.Fatal("member missing")
	}
	if m.Role != models.RoleViewer || m.Permissions != perms {
		t.Errorf("role not updated: %+v", m)
	}
	if m.CustomColor != "#FF0000" {
		t.Errorf("CustomColor: got %q", m.CustomColor)
	}

	if err := store.SetMemberColor(ctx, ws.ID, other.ID, ""); err != nil {
		t.Fatalf("clear color failed: %v", err)
	}
	found, _ = store.GetByID(ctx, ws.ID)
	m, _ = found.Member(other.ID)
	if m.CustomColor != "" {
		t.Errorf("expected color cleared, got %q", m.CustomColor)
	}

	if err := store.SetMemberRole(ctx, ws.ID, primitive.NewObjectID(), models.RoleViewer, perms); err != workspacestore.ErrNotFound {
		t.Errorf("unknown member: expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workspacestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com")
	other := fixtures.CreateUser(ctx, "Other", "other@example.com")
	a := fixtures.CreateSharedWorkspace(ctx, "Alpha", owner.ID)
	b := fixtures.CreatePersonalWorkspace(ctx, "Beta", owner.ID)
	fixtures.CreatePersonalWorkspace(ctx, "Gamma", other.ID)

	if err := store.SetArchived(ctx, b.ID, true); err != nil {
		t.Fatalf("SetArchived failed: %v", err)
	}

	list, err := store.ListForUser(ctx, owner.ID, false)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != a.ID {
		t.Errorf("expected only Alpha, got %d workspaces", len(list))
	}

	list, err = store.ListForUser(ctx, owner.ID, true)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 workspaces including archived, got %d", len(list))
	}
}
