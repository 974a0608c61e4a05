package service

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/taskboard/internal/access"
	"github.com/mesh-intelligence/taskboard/internal/audit"
	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// MoveToGroup drops a task into the kanban column target of a view and
// places it at position targetIndex inside that column. target is an
// option ID or user ID; an empty target is the no-value column and clears
// the property. The new value and the renumbered board order are stored in
// one commit. A targetIndex past the end of the column appends.
func (s *Service) MoveToGroup(actor types.Actor, viewID, taskID, target string, targetIndex int) (*types.Task, error) {
	if targetIndex < 0 {
		return nil, fmt.Errorf("%w: target index %d", types.ErrInvalidIndex, targetIndex)
	}
	v, err := get[*types.View](s.store, types.TableViews, viewID)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", viewID, err)
	}
	if v.Config.GroupBy == "" {
		return nil, fmt.Errorf("%w: view %q is not grouped", types.ErrInvalidView, v.Name)
	}
	t, b, res, err := s.authorizeTask(actor, taskID)
	if err != nil {
		return nil, err
	}
	if t.BoardID != v.BoardID {
		return nil, fmt.Errorf("task %s on view %s: %w", taskID, viewID, types.ErrNotFound)
	}
	if err := access.Require(res, access.CanWriteTask(res, t, b.Properties), "move task"); err != nil {
		return nil, err
	}
	idx := schema.NewIndex(b.Properties)
	p, ok := idx.Property(v.Config.GroupBy)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrPropertyNotFound, v.Config.GroupBy)
	}
	value, err := groupValue(p, t.Value(p.PropertyID), target)
	if err != nil {
		return nil, err
	}

	tasks, err := s.boardTasks(b.BoardID)
	if err != nil {
		return nil, err
	}
	moved := t.Clone()
	moved.SetValue(p.PropertyID, value)

	rest := make([]*types.Task, 0, len(tasks))
	for _, x := range tasks {
		if x.TaskID != moved.TaskID {
			rest = append(rest, x)
		}
	}
	at := insertPosition(rest, idx, p, target, targetIndex)
	ordered := slices.Insert(rest, at, moved)

	if err := s.store.Commit(renumber(ordered, moved)); err != nil {
		return nil, fmt.Errorf("move task: %w", err)
	}
	for i, x := range ordered {
		if x == moved {
			moved.Order = float64(i)
		}
	}
	s.record(actor, event{
		action:      audit.ActionUpdate,
		entityType:  audit.EntityTask,
		entityID:    moved.TaskID,
		boardID:     moved.BoardID,
		activity:    ActivityTaskMoved,
		description: fmt.Sprintf("moved task %q to %s", moved.Title, groupLabel(p, target)),
		details:     map[string]any{"property_id": p.PropertyID, "target": target, "index": targetIndex},
	})
	return moved, nil
}

// groupValue is the value a task takes when dropped into column target.
// List values keep their other entries with target moved to the front,
// since grouping reads the first entry.
func groupValue(p *types.Property, current types.Value, target string) (types.Value, error) {
	if target == "" {
		return types.Value{}, nil
	}
	current = current.Interpret(p.Type)
	switch p.Type {
	case types.PropertyMultiSelect:
		ids := []string{target}
		for _, id := range current.IDs() {
			if id != target {
				ids = append(ids, id)
			}
		}
		return schema.ParseValue(p, ids)
	case types.PropertyPerson, types.PropertyUser:
		if current.Kind() == types.KindPeople && len(current.IDs()) > 1 {
			ids := []string{target}
			for _, id := range current.IDs() {
				if id != target {
					ids = append(ids, id)
				}
			}
			return schema.ParseValue(p, ids)
		}
		return schema.ParseValue(p, target)
	default:
		return schema.ParseValue(p, target)
	}
}

// insertPosition returns where in rest, the board order without the moved
// task, the task must go to land at index i of column target: before the
// column's i-th task, or right after its last task. An empty column puts
// the task at the end of the board.
func insertPosition(rest []*types.Task, idx *schema.Index, p *types.Property, target string, i int) int {
	var column []int
	for pos, x := range rest {
		if groupKey(idx, p, x.Value(p.PropertyID)) == target {
			column = append(column, pos)
		}
	}
	switch {
	case len(column) == 0:
		return len(rest)
	case i < len(column):
		return column[i]
	default:
		return column[len(column)-1] + 1
	}
}

// groupKey is the column a value falls into: the first option or user ID,
// with stale option IDs in the no-value column.
func groupKey(idx *schema.Index, p *types.Property, v types.Value) string {
	v = v.Interpret(p.Type)
	var id string
	switch v.Kind() {
	case types.KindOption:
		id = v.OptionID()
	case types.KindOptions, types.KindPeople:
		if ids := v.IDs(); len(ids) > 0 {
			id = ids[0]
		}
	}
	if id != "" && p.Type.HasOptions() {
		if _, ok := idx.Option(p.PropertyID, id); !ok {
			return ""
		}
	}
	return id
}

func groupLabel(p *types.Property, target string) string {
	if target == "" {
		return "no " + p.Name
	}
	if o, ok := p.Option(target); ok {
		return o.Label
	}
	return target
}
