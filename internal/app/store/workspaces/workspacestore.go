// internal/app/store/workspaces/workspacestore.go
package workspacestore

// Members and the current invite link are embedded in the workspace
// document. Every method that changes them issues exactly one
// single-document update, so each change is atomic on its own; nothing
// here composes multi-document transactions.

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/familyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound      = errors.New("workspace not found")
	ErrDuplicateCode = errors.New("invite code already in use")
	ErrNotShared     = errors.New("workspace is not shared")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspaces")}
}

// Create inserts a new workspace.
func (s *Store) Create(ctx context.Context, ws models.Workspace) (models.Workspace, error) {
	now := time.Now().UTC()
	ws.ID = primitive.NewObjectID()
	ws.NameCI = text.Fold(ws.Name)
	if ws.Members == nil {
		ws.Members = []models.Member{}
	}
	ws.CreatedAt = now
	ws.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ws); err != nil {
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetByID retrieves a workspace by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindByInviteCode returns the workspace whose current invite link has
// the given code. Codes are unique across workspaces (see EnsureIndexes).
func (s *Store) FindByInviteCode(ctx context.Context, code string) (models.Workspace, error) {
	if code == "" {
		return models.Workspace{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"invite_link.code": code})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, filter).Decode(&ws)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// ListForUser returns the workspaces userID is a member of, sorted by name.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, includeArchived bool) ([]models.Workspace, error) {
	filter := bson.M{"members.user_id": userID}
	if !includeArchived {
		filter["archived"] = bson.M{"$ne": true}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	workspaces := []models.Workspace{}
	if err := cur.All(ctx, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// SetInviteLink replaces the workspace's invite link. The previous code
// stops matching FindByInviteCode as soon as this write lands.
func (s *Store) SetInviteLink(ctx context.Context, id primitive.ObjectID, link models.InviteLink) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "kind": models.KindShared},
		bson.M{"$set": bson.M{
			"invite_link": link,
			"updated_at":  time.Now().UTC(),
		}},
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateCode
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotShared
	}
	return nil
}

// AddMemberViaInvite appends member and increments the invite link's usage
// counter in one update. The update only applies while code is still the
// workspace's current link and the user is not already a member; it
// reports false when either condition no longer holds.
func (s *Store) AddMemberViaInvite(ctx context.Context, id primitive.ObjectID, code string, member models.Member) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":              id,
			"invite_link.code": code,
			"members.user_id":  bson.M{"$ne": member.UserID},
		},
		bson.M{
			"$push": bson.M{"members": member},
			"$inc":  bson.M{"invite_link.usage_count": 1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// RemoveMember pulls userID from the member list. The owner is never
// removed by this call.
func (s *Store) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": bson.M{"$ne": userID}},
		bson.M{
			"$pull": bson.M{"members": bson.M{"user_id": userID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// SetMemberRole updates a member's role and its derived permissions.
func (s *Store) SetMemberRole(ctx context.Context, id, userID primitive.ObjectID, role models.Role, perms models.PermissionSet) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "members.user_id": userID},
		bson.M{"$set": bson.M{
			"members.$.role":        role,
			"members.$.permissions": perms,
			"updated_at":            time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMemberColor sets a member's custom color. An empty color clears it.
func (s *Store) SetMemberColor(ctx context.Context, id, userID primitive.ObjectID, color string) error {
	update := bson.M{"$set": bson.M{
		"members.$.custom_color": color,
		"updated_at":             time.Now().UTC(),
	}}
	if color == "" {
		update = bson.M{
			"$unset": bson.M{"members.$.custom_color": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "members.user_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetArchived toggles the archived flag.
func (s *Store) SetArchived(ctx context.Context, id primitive.ObjectID, archived bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"archived":   archived,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByIDs returns the workspaces with the given IDs keyed by ID.
// Missing IDs are simply absent from the map.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Workspace, error) {
	out := make(map[primitive.ObjectID]models.Workspace, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var ws models.Workspace
		if err := cur.Decode(&ws); err != nil {
			return nil, err
		}
		out[ws.ID] = ws
	}
	return out, cur.Err()
}

// EnsureIndexes creates indexes for the workspaces collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// At most one workspace holds any given invite code.
		{
			Keys: bson.D{{Key: "invite_link.code", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"invite_link.code": bson.M{"$exists": true}}).
				SetName("idx_workspace_invite_code"),
		},
		// Membership lookups (ListForUser)
		{
			Keys:    bson.D{{Key: "members.user_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_workspace_member_name"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}},
			Options: options.Index().SetName("idx_workspace_owner"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
