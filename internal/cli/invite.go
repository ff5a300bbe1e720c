package cli

import (
	"context"
	"fmt"

	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newInviteCmd(a *app) *cobra.Command {
	inviteCmd := &cobra.Command{Use: "invite", Short: "Invite link operations"}

	showCmd := &cobra.Command{
		Use:   "show WORKSPACE_ID",
		Short: "Show the workspace's invite link, creating one if none is valid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, args[0], func(ctx context.Context, b *Backend, ws models.Workspace, actor primitive.ObjectID) error {
				share, err := b.Members.ShareLink(ctx, ws, actor)
				if err != nil {
					return err
				}
				if share.URL == "" {
					return fmt.Errorf("workspace %s is personal and cannot be shared", ws.ID.Hex())
				}
				return render(cmd.OutOrStdout(), a.opts.Output, toInviteOut(ws, share))
			})
		},
	}

	rotateCmd := &cobra.Command{
		Use:   "rotate WORKSPACE_ID",
		Short: "Replace the workspace's invite link; the old link stops working",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorkspace(cmd, args[0], func(ctx context.Context, b *Backend, ws models.Workspace, actor primitive.ObjectID) error {
				share, err := b.Members.RotateLink(ctx, ws, actor)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.opts.Output, toInviteOut(ws, share))
			})
		},
	}

	redeemCmd := &cobra.Command{
		Use:   "redeem CODE_OR_URL",
		Short: "Join the --as user to a workspace through an invite link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Medium())
			defer cancel()

			b, err := a.connect(ctx)
			if err != nil {
				return err
			}
			actor, err := a.actor(ctx, b)
			if err != nil {
				return err
			}
			ws, err := b.Members.Join(ctx, args[0], actor)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.opts.Output, toWorkspaceOut(ws))
		},
	}

	inviteCmd.AddCommand(showCmd, rotateCmd, redeemCmd)
	return inviteCmd
}

// withWorkspace loads the workspace named by idHex and the --as actor, then
// calls fn with a bounded context.
func (a *app) withWorkspace(cmd *cobra.Command, idHex string, fn func(ctx context.Context, b *Backend, ws models.Workspace, actor primitive.ObjectID) error) error {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return fmt.Errorf("invalid workspace id %q", idHex)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Medium())
	defer cancel()

	b, err := a.connect(ctx)
	if err != nil {
		return err
	}
	actor, err := a.actor(ctx, b)
	if err != nil {
		return err
	}
	ws, err := b.Members.Workspace(ctx, id)
	if err != nil {
		return err
	}
	return fn(ctx, b, ws, actor)
}
