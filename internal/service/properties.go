package service

import (
	"fmt"
	"reflect"

	"github.com/mesh-intelligence/taskboard/internal/access"
	"github.com/mesh-intelligence/taskboard/internal/audit"
	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// editSchema runs fn on a copy of the board's schema and stores the copy
// only when fn succeeds. fn may return extra writes that must land in the
// same commit.
func (s *Service) editSchema(actor types.Actor, boardID, op string, propertyID *string, fn func(b *types.Board) ([]types.Write, error)) (*types.Board, error) {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanEditBoard, op); err != nil {
		return nil, err
	}
	next := b.Clone()
	extra, err := fn(next)
	if err != nil {
		return nil, err
	}
	writes := append([]types.Write{types.SetWrite(types.TableBoards, next.BoardID, next)}, extra...)
	if err := s.store.Commit(writes); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	action := audit.ActionUpdate
	switch op {
	case "add property":
		action = audit.ActionCreate
	case "remove property":
		action = audit.ActionDelete
	}
	s.record(actor, event{
		action:      action,
		entityType:  audit.EntityProperty,
		entityID:    *propertyID,
		boardID:     boardID,
		activity:    ActivitySchemaChanged,
		description: op,
		details:     map[string]any{"property_id": *propertyID},
	})
	return next, nil
}

// AddProperty appends a property to the board's schema.
func (s *Service) AddProperty(actor types.Actor, boardID string, spec schema.PropertySpec) (*types.Property, error) {
	var added types.Property
	_, err := s.editSchema(actor, boardID, "add property", &added.PropertyID, func(b *types.Board) ([]types.Write, error) {
		p, err := schema.AddProperty(b, spec)
		if err != nil {
			return nil, err
		}
		added = p.Clone()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// RemoveProperty drops a property from the schema and from every view
// config that references it. Kanban views grouped by it become table views.
// Task values for the property are kept.
func (s *Service) RemoveProperty(actor types.Actor, boardID, propertyID string) error {
	_, err := s.editSchema(actor, boardID, "remove property", &propertyID, func(b *types.Board) ([]types.Write, error) {
		if err := schema.RemoveProperty(b, propertyID); err != nil {
			return nil, err
		}
		var writes []types.Write
		for i := range b.Views {
			v := b.Views[i].Clone()
			pruned := v.Config.Without(propertyID)
			if reflect.DeepEqual(pruned, v.Config) {
				continue
			}
			v.Config = pruned
			// A kanban view cannot stand without its group-by property.
			if v.Type == types.ViewKanban && pruned.GroupBy == "" {
				v.Type = types.ViewTable
			}
			writes = append(writes, types.SetWrite(types.TableViews, v.ViewID, &v))
		}
		return writes, nil
	})
	return err
}

// RenameProperty changes a property's display name.
func (s *Service) RenameProperty(actor types.Actor, boardID, propertyID, name string) error {
	_, err := s.editSchema(actor, boardID, "rename property", &propertyID, func(b *types.Board) ([]types.Write, error) {
		return nil, schema.RenameProperty(b, propertyID, name)
	})
	return err
}

// ResizeProperty sets a property's display width.
func (s *Service) ResizeProperty(actor types.Actor, boardID, propertyID string, width int) error {
	_, err := s.editSchema(actor, boardID, "resize property", &propertyID, func(b *types.Board) ([]types.Write, error) {
		return nil, schema.ResizeProperty(b, propertyID, width)
	})
	return err
}

// SetRequired marks a property as required or optional. Existing tasks are
// not checked; the rule applies to later writes.
func (s *Service) SetRequired(actor types.Actor, boardID, propertyID string, required bool) error {
	_, err := s.editSchema(actor, boardID, "set required", &propertyID, func(b *types.Board) ([]types.Write, error) {
		return nil, schema.SetRequired(b, propertyID, required)
	})
	return err
}

// ReorderProperties moves a property between display positions.
func (s *Service) ReorderProperties(actor types.Actor, boardID string, oldIndex, newIndex int) error {
	_, err := s.editSchema(actor, boardID, "reorder properties", new(string), func(b *types.Board) ([]types.Write, error) {
		return nil, schema.ReorderProperties(b, oldIndex, newIndex)
	})
	return err
}

// AddOption appends an option to a select, multi_select or status property.
func (s *Service) AddOption(actor types.Actor, boardID, propertyID string, spec schema.OptionSpec) (*types.Option, error) {
	var added types.Option
	_, err := s.editSchema(actor, boardID, "add option", &propertyID, func(b *types.Board) ([]types.Write, error) {
		o, err := schema.AddOption(b, propertyID, spec)
		if err != nil {
			return nil, err
		}
		added = *o
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// UpdateOption changes an option's label or color.
func (s *Service) UpdateOption(actor types.Actor, boardID, propertyID, optionID string, patch schema.OptionPatch) error {
	_, err := s.editSchema(actor, boardID, "update option", &propertyID, func(b *types.Board) ([]types.Write, error) {
		return nil, schema.UpdateOption(b, propertyID, optionID, patch)
	})
	return err
}

// RemoveOption drops an option. Tasks holding it keep the stale ID.
func (s *Service) RemoveOption(actor types.Actor, boardID, propertyID, optionID string) error {
	_, err := s.editSchema(actor, boardID, "remove option", &propertyID, func(b *types.Board) ([]types.Write, error) {
		return nil, schema.RemoveOption(b, propertyID, optionID)
	})
	return err
}

// ReorderOptions moves an option within its property.
func (s *Service) ReorderOptions(actor types.Actor, boardID, propertyID string, oldIndex, newIndex int) error {
	_, err := s.editSchema(actor, boardID, "reorder options", &propertyID, func(b *types.Board) ([]types.Write, error) {
		return nil, schema.ReorderOptions(b, propertyID, oldIndex, newIndex)
	})
	return err
}
