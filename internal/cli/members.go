package cli

import (
	"context"
	"fmt"

	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newMembersCmd(a *app) *cobra.Command {
	membersCmd := &cobra.Command{Use: "members", Short: "Workspace member operations"}

	listCmd := &cobra.Command{
		Use:     "list WORKSPACE_ID",
		Aliases: []string{"ls"},
		Short:   "List a workspace's members, owner first",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := primitive.ObjectIDFromHex(args[0])
			if err != nil {
				return fmt.Errorf("invalid workspace id %q", args[0])
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Medium())
			defer cancel()

			b, err := a.connect(ctx)
			if err != nil {
				return err
			}
			ws, err := b.Members.Workspace(ctx, id)
			if err != nil {
				return err
			}
			list, err := b.Members.ListMembers(ctx, ws)
			if err != nil {
				return err
			}
			out := make([]memberOut, 0, len(list))
			for _, mi := range list {
				out = append(out, toMemberOut(mi))
			}
			return render(cmd.OutOrStdout(), a.opts.Output, out)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove WORKSPACE_ID USER_ID",
		Short: "Remove a member from a workspace (owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := primitive.ObjectIDFromHex(args[1])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[1])
			}
			return a.withWorkspace(cmd, args[0], func(ctx context.Context, b *Backend, ws models.Workspace, actor primitive.ObjectID) error {
				if err := b.Members.RemoveMember(ctx, target, ws, actor); err != nil {
					return err
				}
				fresh, err := b.Members.Workspace(ctx, ws.ID)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.opts.Output, toWorkspaceOut(fresh))
			})
		},
	}

	membersCmd.AddCommand(listCmd, removeCmd)
	return membersCmd
}
