package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dalemusser/familyhub/internal/app/system/invitelink"
	"github.com/dalemusser/familyhub/internal/app/system/membership"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"gopkg.in/yaml.v3"
)

type workspaceOut struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Kind     string `yaml:"kind" json:"kind"`
	OwnerID  string `yaml:"owner_id" json:"owner_id"`
	Members  int    `yaml:"members" json:"members"`
	Archived bool   `yaml:"archived" json:"archived"`
}

type inviteOut struct {
	Workspace string    `yaml:"workspace,omitempty" json:"workspace,omitempty"`
	URL       string    `yaml:"url" json:"url"`
	Code      string    `yaml:"code" json:"code"`
	ExpiresAt time.Time `yaml:"expires_at" json:"expires_at"`
	Uses      int       `yaml:"uses" json:"uses"`
}

type memberOut struct {
	UserID      string    `yaml:"user_id" json:"user_id"`
	DisplayName string    `yaml:"display_name" json:"display_name"`
	Email       string    `yaml:"email" json:"email"`
	Role        string    `yaml:"role" json:"role"`
	Owner       bool      `yaml:"owner" json:"owner"`
	Color       string    `yaml:"color,omitempty" json:"color,omitempty"`
	JoinedAt    time.Time `yaml:"joined_at" json:"joined_at"`
}

func toWorkspaceOut(ws models.Workspace) workspaceOut {
	return workspaceOut{
		ID:       ws.ID.Hex(),
		Name:     ws.Name,
		Kind:     string(ws.Kind),
		OwnerID:  ws.OwnerID.Hex(),
		Members:  len(ws.Members),
		Archived: ws.Archived,
	}
}

func toInviteOut(ws models.Workspace, s invitelink.Share) inviteOut {
	return inviteOut{
		Workspace: ws.ID.Hex(),
		URL:       s.URL,
		Code:      s.Link.Code,
		ExpiresAt: s.Link.ExpiresAt,
		Uses:      s.Link.UsageCount,
	}
}

func toMemberOut(mi membership.MemberInfo) memberOut {
	return memberOut{
		UserID:      mi.Member.UserID.Hex(),
		DisplayName: mi.User.DisplayName,
		Email:       mi.User.Email,
		Role:        string(mi.Member.Role),
		Owner:       mi.IsOwner,
		Color:       mi.Member.CustomColor,
		JoinedAt:    mi.Member.JoinedAt,
	}
}

// render writes v to w in the requested format.
func render(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
