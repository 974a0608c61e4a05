package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// withProperty loads the board and resolves a property reference for the
// acting user.
func (a *app) withProperty(boardID, ref string, fn func(actor types.Actor, p *types.Property) error) error {
	actor, err := a.actor()
	if err != nil {
		return err
	}
	b, err := a.svc.GetBoard(actor, boardID)
	if err != nil {
		return err
	}
	p, err := findProperty(b, ref)
	if err != nil {
		return err
	}
	return fn(actor, p)
}

func (a *app) propertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "property",
		Aliases: []string{"prop"},
		Short:   "Edit a board's property schema",
		Long: `Property commands change the typed columns of a board. Properties and
options may be named by ID or by (case-insensitive) name.`,
	}
	cmd.AddCommand(
		a.propertyAddCmd(),
		a.propertyRemoveCmd(),
		a.propertyRenameCmd(),
		a.propertyResizeCmd(),
		a.propertyRequireCmd(),
		a.propertyMoveCmd(),
		a.optionCmd(),
	)
	return cmd
}

func (a *app) propertyAddCmd() *cobra.Command {
	var (
		typ      string
		width    int
		required bool
		options  []string
	)
	cmd := &cobra.Command{
		Use:   "add <board> <name>",
		Short: "Add a property",
		Long: `Add appends a property to the board's schema.

Types: text, rich_text, number, currency, date, select, multi_select, status,
checkbox, person, user, attachment.

Example:
  taskboard property add $BOARD Points --type number
  taskboard property add $BOARD Area --type select --option Backend:blue --option Frontend:green`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			spec := schema.PropertySpec{Name: args[1], Type: types.PropertyType(typ), Width: width, Required: required}
			for _, o := range options {
				spec.Options = append(spec.Options, parseOptionSpec(o))
			}
			p, err := a.svc.AddProperty(actor, args[0], spec)
			if err != nil {
				return err
			}
			return a.done(p.PropertyID, "Added property %s (%s)", p.Name, p.PropertyID)
		},
	}
	cmd.Flags().StringVar(&typ, "type", string(types.PropertyText), "property type")
	cmd.Flags().IntVar(&width, "width", 0, "display width in pixels")
	cmd.Flags().BoolVar(&required, "required", false, "tasks must carry a value")
	cmd.Flags().StringArrayVar(&options, "option", nil, "option as Label[:color] (repeatable)")
	return cmd
}

func (a *app) propertyRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <board> <property>",
		Short: "Remove a property; task values are kept",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProperty(args[0], args[1], func(actor types.Actor, p *types.Property) error {
				if err := a.svc.RemoveProperty(actor, args[0], p.PropertyID); err != nil {
					return err
				}
				return a.done(p.PropertyID, "Removed property %s", p.Name)
			})
		},
	}
}

func (a *app) propertyRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <board> <property> <name>",
		Short: "Rename a property",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProperty(args[0], args[1], func(actor types.Actor, p *types.Property) error {
				if err := a.svc.RenameProperty(actor, args[0], p.PropertyID, args[2]); err != nil {
					return err
				}
				return a.done(p.PropertyID, "Renamed property %s to %s", p.Name, args[2])
			})
		},
	}
}

func (a *app) propertyResizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resize <board> <property> <width>",
		Short: "Set a property's display width",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			return a.withProperty(args[0], args[1], func(actor types.Actor, p *types.Property) error {
				if err := a.svc.ResizeProperty(actor, args[0], p.PropertyID, width); err != nil {
					return err
				}
				return a.done(p.PropertyID, "Resized property %s to %d", p.Name, width)
			})
		},
	}
}

func (a *app) propertyRequireCmd() *cobra.Command {
	var optional bool
	cmd := &cobra.Command{
		Use:   "require <board> <property>",
		Short: "Make a property required (or optional with --off)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProperty(args[0], args[1], func(actor types.Actor, p *types.Property) error {
				if err := a.svc.SetRequired(actor, args[0], p.PropertyID, !optional); err != nil {
					return err
				}
				return a.done(p.PropertyID, "Property %s required: %t", p.Name, !optional)
			})
		},
	}
	cmd.Flags().BoolVar(&optional, "off", false, "make the property optional")
	return cmd
}

func (a *app) propertyMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <board> <from-index> <to-index>",
		Short: "Move a property to another display position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			from, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			to, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			if err := a.svc.ReorderProperties(actor, args[0], from, to); err != nil {
				return err
			}
			return a.done(args[0], "Moved property %d to %d", from, to)
		},
	}
}

func (a *app) optionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "option",
		Short: "Edit the options of a select, multi_select or status property",
	}

	add := &cobra.Command{
		Use:   "add <board> <property> <label[:color]>",
		Short: "Add an option",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProperty(args[0], args[1], func(actor types.Actor, p *types.Property) error {
				o, err := a.svc.AddOption(actor, args[0], p.PropertyID, parseOptionSpec(args[2]))
				if err != nil {
					return err
				}
				return a.done(o.OptionID, "Added option %s to %s", o.Label, p.Name)
			})
		},
	}

	var label, color string
	update := &cobra.Command{
		Use:   "update <board> <property> <option>",
		Short: "Change an option's label or color",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProperty(args[0], args[1], func(actor types.Actor, p *types.Property) error {
				o, err := findOption(p, args[2])
				if err != nil {
					return err
				}
				var patch schema.OptionPatch
				if cmd.Flags().Changed("label") {
					patch.Label = &label
				}
				if cmd.Flags().Changed("color") {
					patch.Color = &color
				}
				if err := a.svc.UpdateOption(actor, args[0], p.PropertyID, o.OptionID, patch); err != nil {
					return err
				}
				return a.done(o.OptionID, "Updated option %s of %s", o.OptionID, p.Name)
			})
		},
	}
	update.Flags().StringVar(&label, "label", "", "new label")
	update.Flags().StringVar(&color, "color", "", "new color")

	remove := &cobra.Command{
		Use:   "remove <board> <property> <option>",
		Short: "Remove an option; tasks keep the stale value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withProperty(args[0], args[1], func(actor types.Actor, p *types.Property) error {
				o, err := findOption(p, args[2])
				if err != nil {
					return err
				}
				if err := a.svc.RemoveOption(actor, args[0], p.PropertyID, o.OptionID); err != nil {
					return err
				}
				return a.done(o.OptionID, "Removed option %s from %s", o.Label, p.Name)
			})
		},
	}

	move := &cobra.Command{
		Use:   "move <board> <property> <from-index> <to-index>",
		Short: "Move an option to another position",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			to, err := parseIndex(args[3])
			if err != nil {
				return err
			}
			return a.withProperty(args[0], args[1], func(actor types.Actor, p *types.Property) error {
				if err := a.svc.ReorderOptions(actor, args[0], p.PropertyID, from, to); err != nil {
					return err
				}
				return a.done(p.PropertyID, "Moved option %d to %d in %s", from, to, p.Name)
			})
		},
	}

	cmd.AddCommand(add, update, remove, move)
	return cmd
}
