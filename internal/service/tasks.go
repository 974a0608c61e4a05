package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/taskboard/internal/access"
	"github.com/mesh-intelligence/taskboard/internal/audit"
	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// TaskSpec describes a task to create. Values are raw payloads keyed by
// property ID and are validated against the board's schema.
type TaskSpec struct {
	Title  string
	Values map[string]any
}

// TaskPatch updates a task. A nil Title is left as it is; a nil entry in
// Values clears that property.
type TaskPatch struct {
	Title  *string
	Values map[string]any
}

// boardTasks returns every task of a board in stored order.
func (s *Service) boardTasks(boardID string) ([]*types.Task, error) {
	return fetch[*types.Task](s.store, types.TableTasks, types.Filter{"board_id": boardID})
}

// ListTasks returns the tasks of a board actor may see, in stored order.
// Assigned view scope narrows the list to tasks the actor created or is
// assigned to.
func (s *Service) ListTasks(actor types.Actor, boardID string) ([]*types.Task, error) {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanView, "list tasks"); err != nil {
		return nil, err
	}
	tasks, err := s.boardTasks(boardID)
	if err != nil {
		return nil, err
	}
	return visibleTasks(res, b, tasks), nil
}

func visibleTasks(res types.AccessResult, b *types.Board, tasks []*types.Task) []*types.Task {
	out := make([]*types.Task, 0, len(tasks))
	for _, t := range tasks {
		if access.CanSeeTask(res, t, b.Properties) {
			out = append(out, t)
		}
	}
	return out
}

// GetTask returns one task.
func (s *Service) GetTask(actor types.Actor, taskID string) (*types.Task, error) {
	t, b, res, err := s.authorizeTask(actor, taskID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, access.CanSeeTask(res, t, b.Properties), "view task"); err != nil {
		return nil, err
	}
	return t, nil
}

// authorizeTask loads a task, its board and the actor's access.
func (s *Service) authorizeTask(actor types.Actor, taskID string) (*types.Task, *types.Board, types.AccessResult, error) {
	if taskID == "" {
		return nil, nil, types.AccessResult{}, types.ErrInvalidID
	}
	t, err := get[*types.Task](s.store, types.TableTasks, taskID)
	if err != nil {
		return nil, nil, types.AccessResult{}, fmt.Errorf("task %s: %w", taskID, err)
	}
	b, res, err := s.authorize(actor, t.BoardID)
	if err != nil {
		return nil, nil, types.AccessResult{}, err
	}
	return t, b, res, nil
}

// CreateTask adds a task at the end of the board's order: one more than
// the current maximum, or 0 on an empty board.
func (s *Service) CreateTask(actor types.Actor, boardID string, spec TaskSpec) (*types.Task, error) {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanCreateTasks, "create task"); err != nil {
		return nil, err
	}
	idx := schema.NewIndex(b.Properties)
	values, err := schema.ParseValues(idx, spec.Values)
	if err != nil {
		return nil, err
	}
	t := &types.Task{
		BoardID:   boardID,
		Title:     strings.TrimSpace(spec.Title),
		CreatedBy: actor.UserID,
	}
	for id, v := range values {
		t.SetValue(id, v)
	}
	if err := schema.CheckRequired(idx, t); err != nil {
		return nil, err
	}

	existing, err := s.boardTasks(boardID)
	if err != nil {
		return nil, err
	}
	for i, e := range existing {
		if i == 0 || e.Order+1 > t.Order {
			t.Order = e.Order + 1
		}
	}

	if err := s.store.Commit([]types.Write{types.SetWrite(types.TableTasks, "", t)}); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionCreate,
		entityType:  audit.EntityTask,
		entityID:    t.TaskID,
		boardID:     boardID,
		activity:    ActivityTaskCreated,
		description: fmt.Sprintf("created task %q", t.Title),
		details:     map[string]any{"title": t.Title},
	})
	return t, nil
}

// UpdateTask applies patch to a task. Only the properties named in the
// patch are validated and checked for required values, so tasks created
// before a property became required can still be edited.
func (s *Service) UpdateTask(actor types.Actor, taskID string, patch TaskPatch) (*types.Task, error) {
	t, b, res, err := s.authorizeTask(actor, taskID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, access.CanWriteTask(res, t, b.Properties), "edit task"); err != nil {
		return nil, err
	}
	idx := schema.NewIndex(b.Properties)
	values, err := schema.ParseValues(idx, patch.Values)
	if err != nil {
		return nil, err
	}

	next := t.Clone()
	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
	}
	changed := make([]string, 0, len(values))
	for id, v := range values {
		p, _ := idx.Property(id)
		if p.Required && v.IsBlank() {
			return nil, fmt.Errorf("%w: %s", types.ErrRequiredValue, p.Name)
		}
		next.SetValue(id, v)
		changed = append(changed, id)
	}
	slices.Sort(changed)

	if err := s.store.Commit([]types.Write{types.SetWrite(types.TableTasks, next.TaskID, next)}); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionUpdate,
		entityType:  audit.EntityTask,
		entityID:    next.TaskID,
		boardID:     next.BoardID,
		activity:    ActivityTaskUpdated,
		description: fmt.Sprintf("updated task %q", next.Title),
		details:     map[string]any{"properties": changed, "title_changed": patch.Title != nil},
	})
	return next, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(actor types.Actor, taskID string) error {
	t, b, res, err := s.authorizeTask(actor, taskID)
	if err != nil {
		return err
	}
	if err := access.Require(res, access.CanDeleteTask(res, t, b.Properties), "delete task"); err != nil {
		return err
	}
	if err := s.store.Commit([]types.Write{types.DeleteWrite(types.TableTasks, t.TaskID)}); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionDelete,
		entityType:  audit.EntityTask,
		entityID:    t.TaskID,
		boardID:     t.BoardID,
		activity:    ActivityTaskDeleted,
		description: fmt.Sprintf("deleted task %q", t.Title),
	})
	return nil
}

// BulkDelete removes exactly the given tasks of a board. Every task must
// exist on the board and be deletable by actor, otherwise nothing is
// removed.
func (s *Service) BulkDelete(actor types.Actor, boardID string, taskIDs []string) error {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return err
	}
	if err := access.Require(res, res.Permissions.CanDeleteTasks, "delete tasks"); err != nil {
		return err
	}
	if len(taskIDs) == 0 {
		return nil
	}
	tasks, err := s.boardTasks(boardID)
	if err != nil {
		return err
	}
	byID := make(map[string]*types.Task, len(tasks))
	for _, t := range tasks {
		byID[t.TaskID] = t
	}

	writes := make([]types.Write, 0, len(taskIDs))
	seen := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		t, ok := byID[id]
		if !ok {
			return fmt.Errorf("task %s on board %s: %w", id, boardID, types.ErrNotFound)
		}
		if err := access.Require(res, access.CanDeleteTask(res, t, b.Properties), "delete task "+id); err != nil {
			return err
		}
		writes = append(writes, types.DeleteWrite(types.TableTasks, id))
	}
	if err := s.store.Commit(writes); err != nil {
		return fmt.Errorf("bulk delete: %w", err)
	}
	for _, w := range writes {
		s.record(actor, event{
			action:     audit.ActionDelete,
			entityType: audit.EntityTask,
			entityID:   w.ID,
			boardID:    boardID,
		})
	}
	s.audit.RecordActivity(boardID, ActivityTaskDeleted, actor.UserID,
		fmt.Sprintf("deleted %d tasks", len(writes)), map[string]any{"count": len(writes)})
	return nil
}

// ReorderTask moves the task at position oldIndex of the board's stored
// order to newIndex and renumbers every task 0..n-1. The whole permutation
// is one commit.
func (s *Service) ReorderTask(actor types.Actor, boardID string, oldIndex, newIndex int) error {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return err
	}
	if err := access.Require(res, res.Permissions.CanEditTasks, "reorder tasks"); err != nil {
		return err
	}
	tasks, err := s.boardTasks(boardID)
	if err != nil {
		return err
	}
	if oldIndex < 0 || oldIndex >= len(tasks) || newIndex < 0 || newIndex >= len(tasks) {
		return fmt.Errorf("%w: move %d to %d of %d", types.ErrInvalidIndex, oldIndex, newIndex, len(tasks))
	}
	moved := tasks[oldIndex]
	if err := access.Require(res, access.CanWriteTask(res, moved, b.Properties), "reorder task"); err != nil {
		return err
	}
	tasks = slices.Delete(tasks, oldIndex, oldIndex+1)
	tasks = slices.Insert(tasks, newIndex, moved)

	writes := renumber(tasks, nil)
	if err := s.store.Commit(writes); err != nil {
		return fmt.Errorf("reorder tasks: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionUpdate,
		entityType:  audit.EntityTask,
		entityID:    moved.TaskID,
		boardID:     boardID,
		activity:    ActivityTasksReordered,
		description: fmt.Sprintf("moved task %q from %d to %d", moved.Title, oldIndex, newIndex),
		details:     map[string]any{"from": oldIndex, "to": newIndex},
	})
	return nil
}

// renumber assigns orders 0..n-1 and returns a write for every task whose
// order changed, plus force when it is not nil.
func renumber(tasks []*types.Task, force *types.Task) []types.Write {
	var writes []types.Write
	for i, t := range tasks {
		order := float64(i)
		if t.Order == order && t != force {
			continue
		}
		next := t.Clone()
		next.Order = order
		writes = append(writes, types.SetWrite(types.TableTasks, next.TaskID, next))
	}
	return writes
}
