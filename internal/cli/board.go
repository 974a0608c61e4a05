package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/internal/service"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func (a *app) boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Create, list, change and delete boards",
	}
	cmd.AddCommand(a.boardCreateCmd(), a.boardListCmd(), a.boardShowCmd(), a.boardUpdateCmd(), a.boardDeleteCmd())
	return cmd
}

func (a *app) boardCreateCmd() *cobra.Command {
	var (
		visibility string
		empty      bool
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a board owned by the acting user",
		Long: `Create makes a board with the default schema (Status, Assignee, Due,
Priority) and two views: a table of every property and a kanban grouped by
Status. Use --empty to start without properties.

Example:
  taskboard board create "Q3 Launch" --as alice
  taskboard board create Scratch --visibility private --empty --as alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			spec := service.BoardSpec{Name: args[0], Visibility: types.Visibility(visibility)}
			if empty {
				spec.Properties = []schema.PropertySpec{}
			}
			b, err := a.svc.CreateBoard(actor, spec)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return a.emit(b, nil)
			}
			return a.done(b.BoardID, "Created board %s (%s)", b.Name, b.BoardID)
		},
	}
	cmd.Flags().StringVar(&visibility, "visibility", string(types.VisibilityWorkspace), "private or workspace")
	cmd.Flags().BoolVar(&empty, "empty", false, "create the board without default properties")
	return cmd
}

func (a *app) boardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the boards the acting user can see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			boards, err := a.svc.ListBoards(actor)
			if err != nil {
				return err
			}
			return a.emit(boards, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tOWNER\tVISIBILITY\tPROPERTIES\tCREATED")
				for _, b := range boards {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
						b.BoardID, truncate(b.Name, 40), b.OwnerID, b.Visibility,
						len(b.Properties), b.CreatedAt.Format("2006-01-02"))
				}
			})
		},
	}
}

func (a *app) boardShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <board>",
		Short: "Show a board's schema and views",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			b, err := a.svc.GetBoard(actor, args[0])
			if err != nil {
				return err
			}
			return a.emit(b, func(w io.Writer) {
				fmt.Fprintf(w, "%s (%s)\towner %s\t%s\n\n", b.Name, b.BoardID, b.OwnerID, b.Visibility)
				fmt.Fprintln(w, "PROPERTY\tID\tTYPE\tREQUIRED\tOPTIONS")
				for _, p := range b.Properties {
					var opts []string
					for _, o := range p.Options {
						opts = append(opts, o.Label)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%v\n", p.Name, p.PropertyID, p.Type, p.Required, opts)
				}
				fmt.Fprintln(w)
				fmt.Fprintln(w, "VIEW\tID\tTYPE\tDEFAULT")
				for _, v := range b.Views {
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", v.Name, v.ViewID, v.Type, v.IsDefault)
				}
			})
		},
	}
}

func (a *app) boardUpdateCmd() *cobra.Command {
	var name, visibility string
	cmd := &cobra.Command{
		Use:   "update <board>",
		Short: "Rename a board or change its visibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			var patch service.BoardPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("visibility") {
				v := types.Visibility(visibility)
				patch.Visibility = &v
			}
			b, err := a.svc.UpdateBoard(actor, args[0], patch)
			if err != nil {
				return err
			}
			return a.done(b.BoardID, "Updated board %s", b.Name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new board name")
	cmd.Flags().StringVar(&visibility, "visibility", "", "private or workspace")
	return cmd
}

func (a *app) boardDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board>",
		Short: "Delete a board with its tasks, views, members and invitations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			if err := a.svc.DeleteBoard(actor, args[0]); err != nil {
				return err
			}
			return a.done(args[0], "Deleted board %s", args[0])
		},
	}
}
