// Package membership orchestrates workspace membership: joining through an
// invite link, listing and removing members, role and color changes, and
// the workspace lifecycle around them.
//
// Every write is a single-document update issued through the store; no
// operation spans documents and none is retried here.
package membership

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/familyhub/internal/app/policy/workspacepolicy"
	userstore "github.com/dalemusser/familyhub/internal/app/store/users"
	workspacestore "github.com/dalemusser/familyhub/internal/app/store/workspaces"
	"github.com/dalemusser/familyhub/internal/app/system/colors"
	"github.com/dalemusser/familyhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/familyhub/internal/app/system/invitelink"
	"github.com/dalemusser/familyhub/internal/app/system/notify"
	"github.com/dalemusser/familyhub/internal/domain/apperr"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// profileFetchLimit bounds concurrent user lookups in ListMembers.
const profileFetchLimit = 8

const maxNameLen = 100

// WorkspaceStore is the workspace persistence membership needs.
type WorkspaceStore interface {
	Create(ctx context.Context, ws models.Workspace) (models.Workspace, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, includeArchived bool) ([]models.Workspace, error)
	RemoveMember(ctx context.Context, id, userID primitive.ObjectID) (bool, error)
	SetMemberRole(ctx context.Context, id, userID primitive.ObjectID, role models.Role, perms models.PermissionSet) error
	SetMemberColor(ctx context.Context, id, userID primitive.ObjectID, color string) error
	SetArchived(ctx context.Context, id primitive.ObjectID, archived bool) error
}

// UserStore is the user persistence membership needs.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	SetPersonalColor(ctx context.Context, id primitive.ObjectID, color string) error
}

// Inviter is the invite link lifecycle.
type Inviter interface {
	ParseJoinURL(raw string) (string, error)
	Redeem(ctx context.Context, code string, actor primitive.ObjectID) (models.Workspace, error)
	RefreshIfNeeded(ctx context.Context, ws models.Workspace, actor primitive.ObjectID) (invitelink.Share, error)
	Generate(ctx context.Context, ws models.Workspace, actor primitive.ObjectID) (models.InviteLink, error)
	ShareURL(code string) string
}

// MemberInfo pairs a member record with the member's user profile.
type MemberInfo struct {
	Member  models.Member
	User    models.User
	IsOwner bool
}

// Service implements membership operations.
type Service struct {
	Workspaces WorkspaceStore
	Users      UserStore
	Invites    Inviter
	Feed       notify.Publisher
	Log        *zap.Logger

	Now func() time.Time
}

// New constructs a Service.
func New(workspaces WorkspaceStore, users UserStore, invites Inviter, feed notify.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Workspaces: workspaces,
		Users:      users,
		Invites:    invites,
		Feed:       feed,
		Log:        logger,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// Workspace loads a workspace by id. A missing workspace is InvalidWorkspace.
func (s *Service) Workspace(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	if id.IsZero() {
		return models.Workspace{}, apperr.ErrInvalidWorkspace
	}
	ws, err := s.Workspaces.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			return models.Workspace{}, apperr.New(apperr.KindInvalidWorkspace, "workspace not found")
		}
		return models.Workspace{}, fmt.Errorf("load workspace: %w", err)
	}
	return ws, nil
}

// Join redeems an invite code or deep link for actor.
func (s *Service) Join(ctx context.Context, codeOrURL string, actor primitive.ObjectID) (models.Workspace, error) {
	if actor.IsZero() {
		return models.Workspace{}, apperr.ErrNotAuthenticated
	}
	code, err := s.Invites.ParseJoinURL(codeOrURL)
	if err != nil {
		return models.Workspace{}, err
	}
	return s.Invites.Redeem(ctx, code, actor)
}

// ShareLink returns the current share link for ws, creating one if needed.
func (s *Service) ShareLink(ctx context.Context, ws models.Workspace, actor primitive.ObjectID) (invitelink.Share, error) {
	return s.Invites.RefreshIfNeeded(ctx, ws, actor)
}

// RotateLink unconditionally replaces the share link of ws.
func (s *Service) RotateLink(ctx context.Context, ws models.Workspace, actor primitive.ObjectID) (invitelink.Share, error) {
	link, err := s.Invites.Generate(ctx, ws, actor)
	if err != nil {
		return invitelink.Share{}, err
	}
	return invitelink.Share{URL: s.Invites.ShareURL(link.Code), Link: link}, nil
}

// ListMembers returns ws's members with their profiles, owner first and the
// rest by join time. A member whose profile cannot be fetched is logged and
// left out rather than failing the listing.
func (s *Service) ListMembers(ctx context.Context, ws models.Workspace) ([]MemberInfo, error) {
	if ws.ID.IsZero() {
		return nil, apperr.ErrInvalidWorkspace
	}

	fetched := make([]*MemberInfo, len(ws.Members))
	var g errgroup.Group
	g.SetLimit(profileFetchLimit)
	for i, m := range ws.Members {
		g.Go(func() error {
			u, err := s.Users.GetByID(ctx, m.UserID)
			if err != nil {
				s.Log.Warn("skipping member whose profile could not be fetched",
					zap.String("workspace_id", ws.ID.Hex()),
					zap.String("user_id", m.UserID.Hex()),
					zap.Error(err))
				return nil
			}
			fetched[i] = &MemberInfo{Member: m, User: u, IsOwner: m.UserID == ws.OwnerID}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]MemberInfo, 0, len(fetched))
	for _, mi := range fetched {
		if mi != nil {
			out = append(out, *mi)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsOwner != out[j].IsOwner {
			return out[i].IsOwner
		}
		if !out[i].Member.JoinedAt.Equal(out[j].Member.JoinedAt) {
			return out[i].Member.JoinedAt.Before(out[j].Member.JoinedAt)
		}
		return out[i].Member.UserID.Hex() < out[j].Member.UserID.Hex()
	})
	return out, nil
}

// RemoveMember removes userID from ws. Only the owner may remove members,
// and the owner can never be removed. Removing someone who is not a member
// succeeds without a write.
func (s *Service) RemoveMember(ctx context.Context, userID primitive.ObjectID, ws models.Workspace, actor primitive.ObjectID) error {
	if actor.IsZero() {
		return apperr.ErrNotAuthenticated
	}
	if ws.ID.IsZero() {
		return apperr.ErrInvalidWorkspace
	}
	if userID == ws.OwnerID {
		return apperr.ErrCannotRemoveOwner
	}
	if !workspacepolicy.CanManageMembers(ws, actor) {
		return apperr.ErrInsufficientPermissions
	}

	removed, err := s.Workspaces.RemoveMember(ctx, ws.ID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if !removed {
		s.Log.Debug("remove member: not a member",
			zap.String("workspace_id", ws.ID.Hex()),
			zap.String("user_id", userID.Hex()))
		return nil
	}

	s.Log.Info("member removed",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("actor_id", actor.Hex()))
	s.publish(notify.Event{
		Type:        notify.MemberRemoved,
		WorkspaceID: ws.ID,
		ActorID:     actor,
		UserID:      userID,
	})
	return nil
}

// ChangeRole sets userID's role in ws and recomputes their permissions.
// Only the owner may change roles; the owner's own role is fixed and
// ownership cannot be granted this way.
func (s *Service) ChangeRole(ctx context.Context, ws models.Workspace, userID primitive.ObjectID, role models.Role, actor primitive.ObjectID) error {
	if actor.IsZero() {
		return apperr.ErrNotAuthenticated
	}
	if ws.ID.IsZero() || !ws.IsShared() {
		return apperr.ErrInvalidWorkspace
	}
	if userID == ws.OwnerID {
		return apperr.New(apperr.KindCannotRemoveOwner, "the owner's role cannot be changed")
	}
	if !workspacepolicy.CanManageMembers(ws, actor) {
		return apperr.ErrInsufficientPermissions
	}
	if !role.Valid() || role == models.RoleOwner {
		return apperr.New(apperr.KindInvalidInput, "role %q cannot be assigned", role)
	}

	prev, ok := ws.Member(userID)
	if !ok {
		return apperr.New(apperr.KindInvalidInput, "user is not a member of this workspace")
	}

	perms := workspacepolicy.PermissionsForRole(role)
	if err := s.Workspaces.SetMemberRole(ctx, ws.ID, userID, role, perms); err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			return apperr.New(apperr.KindInvalidInput, "user is not a member of this workspace")
		}
		return fmt.Errorf("set member role: %w", err)
	}

	s.Log.Info("member role changed",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.String("from", string(prev.Role)),
		zap.String("to", string(role)))
	s.publish(notify.Event{
		Type:        notify.MemberRoleChanged,
		WorkspaceID: ws.ID,
		ActorID:     actor,
		UserID:      userID,
		Details:     map[string]string{"from": string(prev.Role), "to": string(role)},
	})
	return nil
}

// SetMemberColor sets actor's own color override in a shared workspace.
// An empty color clears the override.
func (s *Service) SetMemberColor(ctx context.Context, ws models.Workspace, actor primitive.ObjectID, color string) error {
	if actor.IsZero() {
		return apperr.ErrNotAuthenticated
	}
	if ws.ID.IsZero() || !ws.IsShared() {
		return apperr.ErrInvalidWorkspace
	}
	if !ws.HasMember(actor) {
		return apperr.ErrInsufficientPermissions
	}
	color, err := normalizeColor(color)
	if err != nil {
		return err
	}

	if err := s.Workspaces.SetMemberColor(ctx, ws.ID, actor, color); err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			return apperr.ErrInsufficientPermissions
		}
		return fmt.Errorf("set member color: %w", err)
	}
	s.publish(notify.Event{
		Type:        notify.MemberColorChanged,
		WorkspaceID: ws.ID,
		ActorID:     actor,
		UserID:      actor,
		Details:     map[string]string{"color": color},
	})
	return nil
}

// CreateWorkspace creates a workspace owned by owner, who becomes its sole
// member with the owner role.
func (s *Service) CreateWorkspace(ctx context.Context, owner primitive.ObjectID, name string, kind models.WorkspaceKind, color, icon string) (models.Workspace, error) {
	if owner.IsZero() {
		return models.Workspace{}, apperr.ErrNotAuthenticated
	}
	if !kind.Valid() {
		return models.Workspace{}, apperr.New(apperr.KindInvalidInput, "unknown workspace kind %q", kind)
	}
	name = htmlsanitize.PlainText(name)
	if name == "" {
		return models.Workspace{}, apperr.New(apperr.KindInvalidInput, "workspace name is required")
	}
	if len([]rune(name)) > maxNameLen {
		return models.Workspace{}, apperr.New(apperr.KindInvalidInput, "workspace name is too long")
	}
	color, err := normalizeColor(color)
	if err != nil {
		return models.Workspace{}, err
	}

	ws, err := s.Workspaces.Create(ctx, models.Workspace{
		Name:    name,
		Kind:    kind,
		OwnerID: owner,
		Color:   color,
		Icon:    htmlsanitize.PlainText(icon),
		Members: []models.Member{workspacepolicy.NewMember(owner, models.RoleOwner, s.Now())},
	})
	if err != nil {
		return models.Workspace{}, fmt.Errorf("create workspace: %w", err)
	}

	s.Log.Info("workspace created",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("kind", string(kind)),
		zap.String("owner_id", owner.Hex()))
	s.publish(notify.Event{
		Type:        notify.WorkspaceCreated,
		WorkspaceID: ws.ID,
		ActorID:     owner,
		Details:     map[string]string{"kind": string(kind), "name": name},
	})
	return ws, nil
}

// ListWorkspaces returns the workspaces user belongs to.
func (s *Service) ListWorkspaces(ctx context.Context, user primitive.ObjectID, includeArchived bool) ([]models.Workspace, error) {
	if user.IsZero() {
		return nil, apperr.ErrNotAuthenticated
	}
	list, err := s.Workspaces.ListForUser(ctx, user, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return list, nil
}

// SetArchived archives or restores ws. Owner only.
func (s *Service) SetArchived(ctx context.Context, ws models.Workspace, actor primitive.ObjectID, archived bool) error {
	if actor.IsZero() {
		return apperr.ErrNotAuthenticated
	}
	if ws.ID.IsZero() {
		return apperr.ErrInvalidWorkspace
	}
	if !ws.IsOwner(actor) {
		return apperr.ErrInsufficientPermissions
	}
	if ws.Archived == archived {
		return nil
	}
	if err := s.Workspaces.SetArchived(ctx, ws.ID, archived); err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			return apperr.ErrInvalidWorkspace
		}
		return fmt.Errorf("set archived: %w", err)
	}

	typ := notify.WorkspaceArchived
	if !archived {
		typ = notify.WorkspaceUnarchived
	}
	s.publish(notify.Event{Type: typ, WorkspaceID: ws.ID, ActorID: actor})
	return nil
}

// SetPersonalColor sets user's personal color preference. An empty color
// clears it.
func (s *Service) SetPersonalColor(ctx context.Context, user primitive.ObjectID, color string) error {
	if user.IsZero() {
		return apperr.ErrNotAuthenticated
	}
	color, err := normalizeColor(color)
	if err != nil {
		return err
	}
	if err := s.Users.SetPersonalColor(ctx, user, color); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return apperr.ErrNotAuthenticated
		}
		return fmt.Errorf("set personal color: %w", err)
	}
	return nil
}

func normalizeColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return "", nil
	}
	if !colors.ValidHex(color) {
		return "", apperr.New(apperr.KindInvalidInput, "invalid color %q", color)
	}
	return colors.Normalize(color), nil
}

func (s *Service) publish(ev notify.Event) {
	if s.Feed != nil {
		s.Feed.Publish(ev)
	}
}
