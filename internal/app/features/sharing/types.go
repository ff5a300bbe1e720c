// internal/app/features/sharing/types.go
package sharing

import (
	"time"

	"github.com/dalemusser/familyhub/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/familyhub/internal/app/system/invitelink"
	"github.com/dalemusser/familyhub/internal/app/system/membership"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// workspaceJSON is a workspace as seen by one of its members.
type workspaceJSON struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Kind        models.WorkspaceKind `json:"kind"`
	OwnerID     string               `json:"owner_id"`
	Color       string               `json:"color,omitempty"`
	Icon        string               `json:"icon,omitempty"`
	Archived    bool                 `json:"archived"`
	MemberCount int                  `json:"member_count"`
	Role        models.Role          `json:"role,omitempty"`
	Permissions models.PermissionSet `json:"permissions"`
	MyColor     string               `json:"my_color,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

func toWorkspaceJSON(ws models.Workspace, viewer primitive.ObjectID) workspaceJSON {
	out := workspaceJSON{
		ID:          ws.ID.Hex(),
		Name:        ws.Name,
		Kind:        ws.Kind,
		OwnerID:     ws.OwnerID.Hex(),
		Color:       ws.Color,
		Icon:        ws.Icon,
		Archived:    ws.Archived,
		MemberCount: len(ws.Members),
		CreatedAt:   ws.CreatedAt,
	}
	if m, ok := ws.Member(viewer); ok {
		out.Role = m.Role
		out.Permissions = workspacepolicy.EffectivePermissions(m)
		out.MyColor = m.CustomColor
	}
	return out
}

type memberJSON struct {
	UserID      string               `json:"user_id"`
	DisplayName string               `json:"display_name"`
	Email       string               `json:"email"`
	Role        models.Role          `json:"role"`
	Permissions models.PermissionSet `json:"permissions"`
	IsOwner     bool                 `json:"is_owner"`
	CustomColor string               `json:"custom_color,omitempty"`
	JoinedAt    time.Time            `json:"joined_at"`
}

func toMemberJSON(mi membership.MemberInfo) memberJSON {
	return memberJSON{
		UserID:      mi.Member.UserID.Hex(),
		DisplayName: mi.User.DisplayName,
		Email:       mi.User.Email,
		Role:        mi.Member.Role,
		Permissions: workspacepolicy.EffectivePermissions(mi.Member),
		IsOwner:     mi.IsOwner,
		CustomColor: mi.Member.CustomColor,
		JoinedAt:    mi.Member.JoinedAt,
	}
}

type inviteJSON struct {
	URL        string    `json:"url"`
	Code       string    `json:"code"`
	ExpiresAt  time.Time `json:"expires_at"`
	UsageCount int       `json:"usage_count"`
}

func toInviteJSON(s invitelink.Share) inviteJSON {
	return inviteJSON{
		URL:        s.URL,
		Code:       s.Link.Code,
		ExpiresAt:  s.Link.ExpiresAt,
		UsageCount: s.Link.UsageCount,
	}
}

type createWorkspaceRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type joinRequest struct {
	Link string `json:"link"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type colorRequest struct {
	Color string `json:"color"`
}

type resolveRequest struct {
	Items []resolveItem `json:"items"`
}

type resolveItem struct {
	Kind        models.ItemKind `json:"kind"`
	Color       string          `json:"color,omitempty"`
	WorkspaceID string          `json:"workspace_id,omitempty"`
}

type resolveResponse struct {
	Colors []string `json:"colors"`
}
