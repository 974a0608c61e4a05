package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func (a *app) memberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage who can work on a board",
		Long: `Member commands grant and change roles on a board.

Roles: admin, editor, viewer, restricted_editor, restricted_viewer, or
custom with --perm entries such as board.view, task.edit and
edit.scope.assigned.`,
	}
	cmd.AddCommand(a.memberListCmd(), a.memberAddCmd(), a.memberRoleCmd(), a.memberRemoveCmd(), a.memberTransferCmd())
	return cmd
}

func printMembers(w io.Writer, members []*types.BoardMember) {
	fmt.Fprintln(w, "USER\tROLE\tPERMISSIONS\tADDED BY\tADDED")
	for _, m := range members {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.UserID, m.Role, strings.Join(m.Permissions, ","), m.AddedBy, m.AddedAt.Format("2006-01-02"))
	}
}

func (a *app) memberListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <board>",
		Short: "List a board's members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			members, err := a.svc.ListMembers(actor, args[0])
			if err != nil {
				return err
			}
			return a.emit(members, func(w io.Writer) { printMembers(w, members) })
		},
	}
}

func (a *app) memberAddCmd() *cobra.Command {
	var perms []string
	cmd := &cobra.Command{
		Use:   "add <board> <user> <role>",
		Short: "Add a user to a board directly",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			m, err := a.svc.AddMember(actor, args[0], args[1], args[2], perms)
			if err != nil {
				return err
			}
			return a.done(m.MemberID, "Added %s as %s", m.UserID, m.Role)
		},
	}
	cmd.Flags().StringSliceVar(&perms, "perm", nil, "permissions for the custom role")
	return cmd
}

func (a *app) memberRoleCmd() *cobra.Command {
	var perms []string
	cmd := &cobra.Command{
		Use:   "role <board> <user> <role>",
		Short: "Change a member's role",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			m, err := a.svc.ChangeRole(actor, args[0], args[1], args[2], perms)
			if err != nil {
				return err
			}
			return a.done(m.MemberID, "%s is now %s", m.UserID, m.Role)
		},
	}
	cmd.Flags().StringSliceVar(&perms, "perm", nil, "permissions for the custom role")
	return cmd
}

func (a *app) memberRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <board> <user>",
		Short: "Remove a member (members may remove themselves)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			if err := a.svc.RemoveMember(actor, args[0], args[1]); err != nil {
				return err
			}
			return a.done(args[1], "Removed %s", args[1])
		},
	}
}

func (a *app) memberTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <board> <user>",
		Short: "Hand board ownership to another user; the old owner becomes admin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			if err := a.svc.TransferOwnership(actor, args[0], args[1]); err != nil {
				return err
			}
			return a.done(args[0], "%s now owns board %s", args[1], args[0])
		},
	}
}

func (a *app) invitationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invitation",
		Aliases: []string{"invite"},
		Short:   "Invite users by email and answer invitations",
	}

	var perms []string
	send := &cobra.Command{
		Use:   "send <board> <email> <role>",
		Short: "Invite an email address to a board",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			inv, err := a.svc.Invite(actor, args[0], args[1], args[2], perms)
			if err != nil {
				return err
			}
			return a.done(inv.InvitationID, "Invited %s as %s until %s (%s)", inv.Email, inv.Role, inv.ExpiresAt.Format("2006-01-02 15:04"), inv.InvitationID)
		},
	}
	send.Flags().StringSliceVar(&perms, "perm", nil, "permissions for the custom role")

	list := &cobra.Command{
		Use:   "list [board]",
		Short: "List a board's invitations, or your pending ones without a board",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			var invs []*types.BoardInvitation
			if len(args) == 1 {
				invs, err = a.svc.ListInvitations(actor, args[0])
			} else {
				invs, err = a.svc.PendingInvitations(actor)
			}
			if err != nil {
				return err
			}
			return a.emit(invs, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tBOARD\tEMAIL\tROLE\tSTATUS\tEXPIRES")
				for _, inv := range invs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", inv.InvitationID, shortID(inv.BoardID), inv.Email, inv.Role, inv.Status, inv.ExpiresAt.Format("2006-01-02 15:04"))
				}
			})
		},
	}

	accept := &cobra.Command{
		Use:   "accept <invitation>",
		Short: "Accept an invitation addressed to your --email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			m, err := a.svc.AcceptInvitation(actor, args[0])
			if err != nil {
				return err
			}
			return a.done(m.MemberID, "Joined board %s as %s", m.BoardID, m.Role)
		},
	}

	answer := func(use, short, verb string, fn func(types.Actor, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <invitation>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				actor, err := a.actor()
				if err != nil {
					return err
				}
				if err := fn(actor, args[0]); err != nil {
					return err
				}
				return a.done(args[0], "%s invitation %s", verb, args[0])
			},
		}
	}

	cmd.AddCommand(
		send,
		list,
		accept,
		answer("decline", "Decline an invitation addressed to you", "Declined", func(actor types.Actor, id string) error {
			return a.svc.DeclineInvitation(actor, id)
		}),
		answer("cancel", "Withdraw a pending invitation", "Cancelled", func(actor types.Actor, id string) error {
			return a.svc.CancelInvitation(actor, id)
		}),
	)
	return cmd
}

func (a *app) accessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "access <board>",
		Short: "Show what the acting user may do on a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			res, err := a.svc.ResolveAccess(actor, args[0])
			if err != nil {
				return err
			}
			return a.emit(res, func(w io.Writer) {
				p := res.Permissions
				fmt.Fprintf(w, "User:\t%s\n", res.UserID)
				fmt.Fprintf(w, "Access:\t%t\n", res.HasAccess)
				fmt.Fprintf(w, "Role:\t%s\n", res.Role)
				fmt.Fprintf(w, "View:\t%t (scope %s)\n", p.CanView, p.ViewScope)
				fmt.Fprintf(w, "Create tasks:\t%t\n", p.CanCreateTasks)
				fmt.Fprintf(w, "Edit tasks:\t%t (scope %s)\n", p.CanEditTasks, p.EditScope)
				fmt.Fprintf(w, "Delete tasks:\t%t\n", p.CanDeleteTasks)
				fmt.Fprintf(w, "Edit board:\t%t\n", p.CanEditBoard)
				fmt.Fprintf(w, "Manage members:\t%t\n", p.CanManageMembers)
				fmt.Fprintf(w, "Delete board:\t%t\n", p.CanDeleteBoard)
			})
		},
	}
}
