package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/service"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func (a *app) viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Manage and apply saved views",
	}
	cmd.AddCommand(a.viewListCmd(), a.viewCreateCmd(), a.viewConfigCmd(), a.viewDefaultCmd(), a.viewDeleteCmd(), a.viewApplyCmd())
	return cmd
}

// configFlags describe a view configuration on the command line.
type configFlags struct {
	groupBy      string
	visible      []string
	aggregations []string
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.groupBy, "group-by", "", "property to group by")
	cmd.Flags().StringSliceVar(&f.visible, "show", nil, "visible properties in order (default: all)")
	cmd.Flags().StringArrayVar(&f.aggregations, "agg", nil, "property:aggregation (repeatable)")
}

// config resolves property names against b.
func (f *configFlags) config(b *types.Board) (types.ViewConfig, error) {
	var cfg types.ViewConfig
	if f.groupBy != "" {
		p, err := findProperty(b, f.groupBy)
		if err != nil {
			return cfg, err
		}
		cfg.GroupBy = p.PropertyID
	}
	for _, name := range f.visible {
		p, err := findProperty(b, name)
		if err != nil {
			return cfg, err
		}
		cfg.VisibleProperties = append(cfg.VisibleProperties, p.PropertyID)
	}
	for _, s := range f.aggregations {
		name, typ, ok := strings.Cut(s, ":")
		if !ok {
			return cfg, usagef("invalid aggregation %q (expected property:type)", s)
		}
		p, err := findProperty(b, name)
		if err != nil {
			return cfg, err
		}
		cfg.Aggregations = append(cfg.Aggregations, types.Aggregation{PropertyID: p.PropertyID, Type: types.AggregationType(typ)})
	}
	return cfg, nil
}

func (a *app) viewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <board>",
		Short: "List a board's views",
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
			return a.emit(b.Views, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tTYPE\tGROUP BY\tDEFAULT")
				for _, v := range b.Views {
					group := ""
					if p, ok := b.Property(v.Config.GroupBy); ok {
						group = p.Name
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", v.ViewID, v.Name, v.Type, group, v.IsDefault)
				}
			})
		},
	}
}

func (a *app) viewCreateCmd() *cobra.Command {
	var (
		typ string
		cf  configFlags
	)
	cmd := &cobra.Command{
		Use:   "create <board> <name>",
		Short: "Create a table or kanban view",
		Long: `Create saves a view of a board. Kanban views need --group-by.

Example:
  taskboard view create $BOARD "By priority" --type kanban --group-by Priority
  taskboard view create $BOARD Estimates --show Status,Points --agg Points:sum`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			b, err := a.svc.GetBoard(actor, args[0])
			if err != nil {
				return err
			}
			cfg, err := cf.config(b)
			if err != nil {
				return err
			}
			v, err := a.svc.CreateView(actor, b.BoardID, service.ViewSpec{Name: args[1], Type: types.ViewType(typ), Config: cfg})
			if err != nil {
				return err
			}
			return a.done(v.ViewID, "Created view %s (%s)", v.Name, v.ViewID)
		},
	}
	cmd.Flags().StringVar(&typ, "type", string(types.ViewTable), "table or kanban")
	cf.register(cmd)
	return cmd
}

func (a *app) viewConfigCmd() *cobra.Command {
	var cf configFlags
	cmd := &cobra.Command{
		Use:   "config <view>",
		Short: "Replace a view's grouping, columns and aggregations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			_, b, err := a.svc.GetView(actor, args[0])
			if err != nil {
				return err
			}
			cfg, err := cf.config(b)
			if err != nil {
				return err
			}
			v, err := a.svc.UpdateViewConfig(actor, args[0], cfg)
			if err != nil {
				return err
			}
			return a.done(v.ViewID, "Updated view %s", v.Name)
		},
	}
	cf.register(cmd)
	return cmd
}

func (a *app) viewDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default <view>",
		Short: "Make a view its board's default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			if err := a.svc.SetDefaultView(actor, args[0]); err != nil {
				return err
			}
			return a.done(args[0], "View %s is now the default", args[0])
		},
	}
}

func (a *app) viewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <view>",
		Short: "Delete a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			if err := a.svc.DeleteView(actor, args[0]); err != nil {
				return err
			}
			return a.done(args[0], "Deleted view %s", args[0])
		},
	}
}

func (a *app) viewApplyCmd() *cobra.Command {
	var tf toolbarFlags
	cmd := &cobra.Command{
		Use:   "apply <view>",
		Short: "Show a view's tasks with optional search, filters and sorts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			v, b, err := a.svc.GetView(actor, args[0])
			if err != nil {
				return err
			}
			return a.applyView(actor, v, b, tf)
		},
	}
	tf.register(cmd)
	return cmd
}
