// Package invitelink manages the shareable join link of shared workspaces.
//
// A shared workspace carries at most one invite link. Generating a link
// replaces the previous one, which makes the old code unredeemable at once;
// links are otherwise only invalidated by time. There is no usage cap.
//
// Known limitation: two concurrent RefreshIfNeeded calls on an expired link
// can both generate a new code. The later write wins and the earlier code
// is silently superseded. No optimistic-concurrency guard is applied.
package invitelink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/familyhub/internal/app/policy/workspacepolicy"
	workspacestore "github.com/dalemusser/familyhub/internal/app/store/workspaces"
	"github.com/dalemusser/familyhub/internal/app/system/notify"
	"github.com/dalemusser/familyhub/internal/domain/apperr"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultScheme = "familyhub"
	DefaultTTL    = 24 * time.Hour
)

// generate retries this many times if a freshly generated code collides.
const maxCodeAttempts = 3

var codePattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// Store is the workspace persistence the lifecycle needs.
type Store interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error)
	FindByInviteCode(ctx context.Context, code string) (models.Workspace, error)
	SetInviteLink(ctx context.Context, id primitive.ObjectID, link models.InviteLink) error
	AddMemberViaInvite(ctx context.Context, id primitive.ObjectID, code string, member models.Member) (bool, error)
}

// Config controls link format and lifetime.
type Config struct {
	Scheme string        // deep-link scheme, e.g. "familyhub"
	TTL    time.Duration // link lifetime
}

// Share is what a share sheet displays.
type Share struct {
	URL  string
	Link models.InviteLink
}

// Service implements the invite link lifecycle.
type Service struct {
	Store Store
	Feed  notify.Publisher
	Log   *zap.Logger

	Scheme string
	TTL    time.Duration

	// Now and NewCode are replaceable in tests.
	Now     func() time.Time
	NewCode func() string
}

// New constructs a Service.
func New(store Store, feed notify.Publisher, cfg Config, logger *zap.Logger) *Service {
	if cfg.Scheme == "" {
		cfg.Scheme = DefaultScheme
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Store:   store,
		Feed:    feed,
		Log:     logger,
		Scheme:  cfg.Scheme,
		TTL:     cfg.TTL,
		Now:     func() time.Time { return time.Now().UTC() },
		NewCode: uuid.NewString,
	}
}

// IsValid reports whether link can still be redeemed at now.
// Validity depends on time only; the usage count plays no part.
func IsValid(link models.InviteLink, now time.Time) bool {
	return !now.After(link.ExpiresAt)
}

// ShareURL builds the shareable deep link for code.
func (s *Service) ShareURL(code string) string {
	return s.Scheme + "://join/" + code
}

// ParseJoinURL extracts the invite code from a deep link of the form
// scheme://join/<code>. A bare code is accepted as well.
func (s *Service) ParseJoinURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		if codePattern.MatchString(raw) {
			return raw, nil
		}
		return "", apperr.ErrInvalidInviteCode
	}

	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Scheme, s.Scheme) || !strings.EqualFold(u.Host, "join") {
		return "", apperr.ErrInvalidInviteCode
	}
	code := strings.Trim(u.Path, "/")
	if !codePattern.MatchString(code) {
		return "", apperr.ErrInvalidInviteCode
	}
	return code, nil
}

// Generate creates a new invite link for ws and replaces any existing one.
// The actor must be the owner or hold the invite capability.
func (s *Service) Generate(ctx context.Context, ws models.Workspace, actor primitive.ObjectID) (models.InviteLink, error) {
	if actor.IsZero() {
		return models.InviteLink{}, apperr.ErrNotAuthenticated
	}
	if ws.ID.IsZero() || !ws.IsShared() {
		return models.InviteLink{}, apperr.ErrInvalidWorkspace
	}
	if !workspacepolicy.CanInvite(ws, actor) {
		return models.InviteLink{}, apperr.ErrInsufficientPermissions
	}

	var prev string
	if ws.InviteLink != nil {
		prev = ws.InviteLink.Code
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		now := s.Now()
		link := models.InviteLink{
			Code:       s.NewCode(),
			CreatedBy:  actor,
			CreatedAt:  now,
			ExpiresAt:  now.Add(s.TTL),
			UsageCount: 0,
		}
		if link.Code == prev {
			continue
		}

		err := s.Store.SetInviteLink(ctx, ws.ID, link)
		switch {
		case err == nil:
			s.Log.Info("invite link generated",
				zap.String("workspace_id", ws.ID.Hex()),
				zap.String("actor_id", actor.Hex()),
				zap.Time("expires_at", link.ExpiresAt))
			s.publish(notify.Event{
				Type:        notify.InviteLinkGenerated,
				WorkspaceID: ws.ID,
				ActorID:     actor,
				At:          now,
				Details:     map[string]string{"expires_at": link.ExpiresAt.Format(time.RFC3339)},
			})
			return link, nil
		case errors.Is(err, workspacestore.ErrDuplicateCode):
			s.Log.Warn("invite code collision; regenerating", zap.Int("attempt", attempt))
		case errors.Is(err, workspacestore.ErrNotShared):
			return models.InviteLink{}, apperr.ErrInvalidWorkspace
		default:
			return models.InviteLink{}, fmt.Errorf("store invite link: %w", err)
		}
	}
	return models.InviteLink{}, errors.New("could not generate a unique invite code")
}

// RefreshIfNeeded returns the workspace's current share link, generating a
// new one when none exists or the existing one has expired. Personal
// workspaces have nothing to share and yield an empty Share.
func (s *Service) RefreshIfNeeded(ctx context.Context, ws models.Workspace, actor primitive.ObjectID) (Share, error) {
	if actor.IsZero() {
		return Share{}, apperr.ErrNotAuthenticated
	}
	if ws.ID.IsZero() {
		return Share{}, apperr.ErrInvalidWorkspace
	}
	if !ws.IsShared() {
		return Share{}, nil
	}
	if !workspacepolicy.CanView(ws, actor) {
		return Share{}, apperr.ErrInsufficientPermissions
	}

	if ws.InviteLink != nil && IsValid(*ws.InviteLink, s.Now()) {
		return Share{URL: s.ShareURL(ws.InviteLink.Code), Link: *ws.InviteLink}, nil
	}

	link, err := s.Generate(ctx, ws, actor)
	if err != nil {
		return Share{}, err
	}
	return Share{URL: s.ShareURL(link.Code), Link: link}, nil
}

// Redeem joins actor to the workspace whose current link has code.
// Joining is idempotent: an existing member gets the workspace back
// without any write.
func (s *Service) Redeem(ctx context.Context, code string, actor primitive.ObjectID) (models.Workspace, error) {
	if actor.IsZero() {
		return models.Workspace{}, apperr.ErrNotAuthenticated
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Workspace{}, apperr.ErrInvalidInviteCode
	}

	ws, err := s.Store.FindByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			return models.Workspace{}, apperr.ErrInvalidInviteCode
		}
		return models.Workspace{}, fmt.Errorf("find invite code: %w", err)
	}
	if ws.InviteLink == nil || !IsValid(*ws.InviteLink, s.Now()) {
		return models.Workspace{}, apperr.ErrInviteLinkExpired
	}
	if ws.HasMember(actor) {
		return ws, nil
	}

	member := workspacepolicy.NewMember(actor, models.RoleEditor, s.Now())
	added, err := s.Store.AddMemberViaInvite(ctx, ws.ID, code, member)
	if err != nil {
		return models.Workspace{}, fmt.Errorf("add member: %w", err)
	}
	if !added {
		// Lost a race: either the user joined concurrently or the link
		// was regenerated between the read and the write.
		fresh, err := s.Store.GetByID(ctx, ws.ID)
		if err != nil {
			return models.Workspace{}, fmt.Errorf("reload workspace: %w", err)
		}
		if fresh.HasMember(actor) {
			return fresh, nil
		}
		return models.Workspace{}, apperr.ErrInvalidInviteCode
	}

	ws.Members = append(ws.Members, member)
	ws.InviteLink.UsageCount++

	s.Log.Info("member joined via invite link",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("user_id", actor.Hex()))
	s.publish(notify.Event{
		Type:        notify.MemberJoined,
		WorkspaceID: ws.ID,
		ActorID:     actor,
		UserID:      actor,
		Details:     map[string]string{"role": string(models.RoleEditor)},
	})
	return ws, nil
}

func (s *Service) publish(ev notify.Event) {
	if s.Feed != nil {
		s.Feed.Publish(ev)
	}
}
