package service

import (
	"fmt"

	"github.com/mesh-intelligence/taskboard/internal/access"
	"github.com/mesh-intelligence/taskboard/internal/audit"
	"github.com/mesh-intelligence/taskboard/internal/fill"
	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// StartFill begins a drag-fill of propertyID with raw value x from visual
// index start on a board. The caller extends the returned session and hands
// it to CommitFill on release.
func (s *Service) StartFill(actor types.Actor, boardID, propertyID string, x any, start int) (*fill.Session, error) {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanEditTasks, "fill"); err != nil {
		return nil, err
	}
	var sess fill.Session
	if err := sess.Start(schema.NewIndex(b.Properties), propertyID, x, start); err != nil {
		return nil, err
	}
	return &sess, nil
}

// CommitFill writes the fill value to every task of visible inside the
// session's range in one commit and returns the number of tasks changed.
// visible must be the visual order the range was dragged over; only its
// task IDs are used. If any task in range is not on the board or may not be
// edited by actor, nothing is written and the session stays active.
func (s *Service) CommitFill(actor types.Actor, boardID string, sess *fill.Session, visible []*types.Task) (int, error) {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return 0, err
	}
	if err := access.Require(res, res.Permissions.CanEditTasks, "fill"); err != nil {
		return 0, err
	}
	if !sess.Active() {
		return 0, fill.ErrNoFill
	}
	p, ok := b.Property(sess.PropertyID())
	if !ok {
		return 0, fmt.Errorf("fill: %w: %s", types.ErrPropertyNotFound, sess.PropertyID())
	}
	if p.Required && sess.Value().IsBlank() {
		return 0, fmt.Errorf("%w: %s", types.ErrRequiredValue, p.Name)
	}

	stored, err := s.boardTasks(boardID)
	if err != nil {
		return 0, err
	}
	byID := make(map[string]*types.Task, len(stored))
	for _, t := range stored {
		byID[t.TaskID] = t
	}
	// Only positions and ids are taken from visible; values, scope checks
	// and writes all use the stored rows.
	resolved := make([]*types.Task, len(visible))
	for i, t := range visible {
		if st, ok := byID[t.TaskID]; ok {
			resolved[i] = st
		} else {
			resolved[i] = &types.Task{TaskID: t.TaskID}
		}
	}
	count := 0
	err = sess.Commit(resolved, func(changes []fill.Change) error {
		writes := make([]types.Write, 0, len(changes))
		for _, c := range changes {
			t, ok := byID[c.TaskID]
			if !ok {
				return fmt.Errorf("fill task %s on board %s: %w", c.TaskID, boardID, types.ErrNotFound)
			}
			if err := access.Require(res, access.CanWriteTask(res, t, b.Properties), "fill task "+t.TaskID); err != nil {
				return err
			}
			next := t.Clone()
			next.SetValue(c.PropertyID, c.Value)
			writes = append(writes, types.SetWrite(types.TableTasks, next.TaskID, next))
		}
		if err := s.store.Commit(writes); err != nil {
			return fmt.Errorf("fill: %w", err)
		}
		count = len(writes)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.record(actor, event{
			action:      audit.ActionUpdate,
			entityType:  audit.EntityProperty,
			entityID:    p.PropertyID,
			boardID:     boardID,
			activity:    ActivityTasksFilled,
			description: fmt.Sprintf("filled %s on %d tasks", p.Name, count),
			details:     map[string]any{"count": count},
		})
	}
	return count, nil
}

// DeleteSelection bulk-deletes the selected tasks. The selection is
// cleared on success and left untouched on failure.
func (s *Service) DeleteSelection(actor types.Actor, boardID string, sel *fill.Selection) error {
	return sel.Delete(func(ids []string) error {
		return s.BulkDelete(actor, boardID, ids)
	})
}
