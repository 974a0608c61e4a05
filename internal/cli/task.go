package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/fill"
	"github.com/mesh-intelligence/taskboard/internal/query"
	"github.com/mesh-intelligence/taskboard/internal/service"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func (a *app) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, list, change and arrange tasks",
		Long: `Task commands work on the records of a board. Property values are given
as name=value pairs: option labels are matched by name, multi_select and
person lists are comma separated, and an empty value clears the property.`,
	}
	cmd.AddCommand(
		a.taskAddCmd(),
		a.taskListCmd(),
		a.taskShowCmd(),
		a.taskUpdateCmd(),
		a.taskDeleteCmd(),
		a.taskReorderCmd(),
		a.taskMoveCmd(),
		a.taskFillCmd(),
	)
	return cmd
}

func (a *app) taskAddCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "add <board> <title>",
		Short: "Add a task at the end of the board",
		Long: `Add creates a task at the end of the board's order.

Example:
  taskboard task add $BOARD "Write docs" --set Status="In progress" --set Assignee=alice`,
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
			values, err := parseAssignments(b, sets)
			if err != nil {
				return err
			}
			t, err := a.svc.CreateTask(actor, b.BoardID, service.TaskSpec{Title: args[1], Values: values})
			if err != nil {
				return err
			}
			if a.jsonMode {
				return a.emit(t, nil)
			}
			return a.done(t.TaskID, "Created task %s (%s)", t.Title, t.TaskID)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "property=value (repeatable)")
	return cmd
}

// toolbarFlags are the transient search, filter and sort flags shared by
// task list and view apply.
type toolbarFlags struct {
	search  string
	filters []string
	sorts   []string
}

func (f *toolbarFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "case-insensitive text search")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "property:operator[:value] (repeatable)")
	cmd.Flags().StringArrayVar(&f.sorts, "sort", nil, "property[:asc|desc] (repeatable, first wins)")
}

// applyView runs a view with the toolbar flags and prints the result.
func (a *app) applyView(actor types.Actor, v *types.View, b *types.Board, tf toolbarFlags) error {
	tb, err := parseToolbar(b, tf.search, tf.filters, tf.sorts)
	if err != nil {
		return err
	}
	res, err := a.svc.ApplyView(actor, v.ViewID, tb)
	if err != nil {
		return err
	}
	return a.emit(res, func(w io.Writer) { printResult(w, b, v, res) })
}

func printResult(w io.Writer, b *types.Board, v *types.View, res *query.Result) {
	if res.Groups == nil {
		printTasks(w, res.Tasks, res.Columns)
	} else {
		p, _ := b.Property(v.Config.GroupBy)
		for _, g := range res.Groups {
			label := g.Label
			if p != nil && !g.NoValue {
				label = optionLabel(p, g.Key)
			}
			fmt.Fprintf(w, "== %s (%d)\n", label, g.Count)
			printTasks(w, g.Tasks, res.Columns)
		}
	}
	if len(res.Aggregates) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, p := range b.Properties {
		agg, ok := res.Aggregates[p.PropertyID]
		if !ok {
			continue
		}
		value := "-"
		if agg.Value != nil {
			value = strconv.FormatFloat(*agg.Value, 'f', -1, 64)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, agg.Type, value)
	}
}

func (a *app) taskListCmd() *cobra.Command {
	var (
		viewID string
		tf     toolbarFlags
	)
	cmd := &cobra.Command{
		Use:   "list <board>",
		Short: "List tasks through a view (the board's default unless --view)",
		Long: `List shows the tasks the acting user may see, shaped by a view and the
transient toolbar state.

Example:
  taskboard task list $BOARD --search docs
  taskboard task list $BOARD --filter Status:equals:Done --sort Due:desc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			var (
				v *types.View
				b *types.Board
			)
			if viewID != "" {
				v, b, err = a.svc.GetView(actor, viewID)
				if err != nil {
					return err
				}
				if b.BoardID != args[0] {
					return fmt.Errorf("view %s: %w", viewID, types.ErrNotFound)
				}
			} else {
				b, err = a.svc.GetBoard(actor, args[0])
				if err != nil {
					return err
				}
				var ok bool
				if v, ok = service.DefaultView(b); !ok {
					tasks, err := a.svc.ListTasks(actor, b.BoardID)
					if err != nil {
						return err
					}
					return a.emit(tasks, func(w io.Writer) { printTasks(w, tasks, columns(b)) })
				}
			}
			return a.applyView(actor, v, b, tf)
		},
	}
	cmd.Flags().StringVar(&viewID, "view", "", "view ID")
	tf.register(cmd)
	return cmd
}

func (a *app) taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task>",
		Short: "Show a task with every property value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			t, err := a.svc.GetTask(actor, args[0])
			if err != nil {
				return err
			}
			b, err := a.svc.GetBoard(actor, t.BoardID)
			if err != nil {
				return err
			}
			return a.emit(t, func(w io.Writer) {
				fmt.Fprintf(w, "ID:\t%s\n", t.TaskID)
				fmt.Fprintf(w, "Title:\t%s\n", t.Title)
				fmt.Fprintf(w, "Board:\t%s\n", b.Name)
				fmt.Fprintf(w, "Created:\t%s by %s\n", t.CreatedAt.Format("2006-01-02 15:04"), t.CreatedBy)
				for i := range b.Properties {
					p := &b.Properties[i]
					fmt.Fprintf(w, "%s:\t%s\n", p.Name, displayValue(p, t.Value(p.PropertyID)))
				}
			})
		},
	}
}

func (a *app) taskUpdateCmd() *cobra.Command {
	var (
		title string
		sets  []string
	)
	cmd := &cobra.Command{
		Use:   "update <task>",
		Short: "Change a task's title or property values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			t, err := a.svc.GetTask(actor, args[0])
			if err != nil {
				return err
			}
			b, err := a.svc.GetBoard(actor, t.BoardID)
			if err != nil {
				return err
			}
			var patch service.TaskPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if patch.Values, err = parseAssignments(b, sets); err != nil {
				return err
			}
			t, err = a.svc.UpdateTask(actor, t.TaskID, patch)
			if err != nil {
				return err
			}
			return a.done(t.TaskID, "Updated task %s", t.Title)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "property=value (repeatable; empty value clears)")
	return cmd
}

func (a *app) taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board> <task>...",
		Short: "Delete one or more tasks, all or nothing",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			var sel fill.Selection
			sel.Add(args[1:]...)
			n := sel.Len()
			if err := a.svc.DeleteSelection(actor, args[0], &sel); err != nil {
				return err
			}
			return a.done(strings.Join(args[1:], ","), "Deleted %d task(s)", n)
		},
	}
}

func (a *app) taskReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <board> <from-index> <to-index>",
		Short: "Move a task within the board's order",
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
			if err := a.svc.ReorderTask(actor, args[0], from, to); err != nil {
				return err
			}
			return a.done(args[0], "Moved task %d to %d", from, to)
		},
	}
}

func (a *app) taskMoveCmd() *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "move <view> <task> <group>",
		Short: "Move a task into a kanban column",
		Long: `Move sets the view's group-by property to the column's value and places
the task at --index within that column. The column is an option label or
ID, a user ID for person columns, or "" for the no-value column.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			v, b, err := a.svc.GetView(actor, args[0])
			if err != nil {
				return err
			}
			target := args[2]
			if target != "" {
				p, err := findProperty(b, v.Config.GroupBy)
				if err != nil {
					return fmt.Errorf("view %s: %w", v.Name, types.ErrInvalidView)
				}
				if p.Type.HasOptions() {
					o, err := findOption(p, target)
					if err != nil {
						return err
					}
					target = o.OptionID
				}
			}
			t, err := a.svc.MoveToGroup(actor, v.ViewID, args[1], target, index)
			if err != nil {
				return err
			}
			return a.done(t.TaskID, "Moved task %s", t.Title)
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "position within the column")
	return cmd
}

func (a *app) taskFillCmd() *cobra.Command {
	var (
		from, to int
		viewID   string
	)
	cmd := &cobra.Command{
		Use:   "fill <board> <property> <value>",
		Short: "Copy a value down (or up) a range of rows",
		Long: `Fill writes value into property for every row from --from to --to
inclusive, counted in the visual order of --view (or the board order).
Nothing is written if any row in range may not be edited.

Example:
  taskboard task fill $BOARD Status Done --from 2 --to 5`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.actor()
			if err != nil {
				return err
			}
			b, err := a.svc.GetBoard(actor, args[0])
			if err != nil {
				return err
			}
			p, err := findProperty(b, args[1])
			if err != nil {
				return err
			}
			x, err := parseValue(p, args[2])
			if err != nil {
				return err
			}

			var visible []*types.Task
			if viewID != "" {
				res, err := a.svc.ApplyView(actor, viewID, query.Toolbar{})
				if err != nil {
					return err
				}
				visible = res.Visible()
			} else if visible, err = a.svc.ListTasks(actor, b.BoardID); err != nil {
				return err
			}

			sess, err := a.svc.StartFill(actor, b.BoardID, p.PropertyID, x, from)
			if err != nil {
				return err
			}
			if err := sess.Extend(to); err != nil {
				return err
			}
			n, err := a.svc.CommitFill(actor, b.BoardID, sess, visible)
			if err != nil {
				return err
			}
			return a.done(p.PropertyID, "Filled %s on %d task(s)", p.Name, n)
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "first row (where the drag starts)")
	cmd.Flags().IntVar(&to, "to", 0, "last row (where the drag ends)")
	cmd.Flags().StringVar(&viewID, "view", "", "view whose order the rows follow")
	return cmd
}
