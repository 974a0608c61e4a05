package service

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/taskboard/internal/access"
	"github.com/mesh-intelligence/taskboard/internal/audit"
	"github.com/mesh-intelligence/taskboard/internal/query"
	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// ViewSpec describes a view to create.
type ViewSpec struct {
	Name   string
	Type   types.ViewType
	Config types.ViewConfig
}

// authorizeView loads a view, its board and the actor's access.
func (s *Service) authorizeView(actor types.Actor, viewID string) (*types.View, *types.Board, types.AccessResult, error) {
	if viewID == "" {
		return nil, nil, types.AccessResult{}, types.ErrInvalidID
	}
	v, err := get[*types.View](s.store, types.TableViews, viewID)
	if err != nil {
		return nil, nil, types.AccessResult{}, fmt.Errorf("view %s: %w", viewID, err)
	}
	b, res, err := s.authorize(actor, v.BoardID)
	if err != nil {
		return nil, nil, types.AccessResult{}, err
	}
	return v, b, res, nil
}

// GetView returns a view together with its board.
func (s *Service) GetView(actor types.Actor, viewID string) (*types.View, *types.Board, error) {
	v, b, res, err := s.authorizeView(actor, viewID)
	if err != nil {
		return nil, nil, err
	}
	if err := access.Require(res, res.Permissions.CanView, "view board"); err != nil {
		return nil, nil, err
	}
	return v, b, nil
}

func (s *Service) recordView(actor types.Actor, action string, v *types.View, description string) {
	s.record(actor, event{
		action:      action,
		entityType:  audit.EntityView,
		entityID:    v.ViewID,
		boardID:     v.BoardID,
		activity:    ActivityViewChanged,
		description: description,
		details:     map[string]any{"name": v.Name, "type": string(v.Type)},
	})
}

// CreateView adds a view to a board. The first view of a board becomes its
// default.
func (s *Service) CreateView(actor types.Actor, boardID string, spec ViewSpec) (*types.View, error) {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanEditBoard, "create view"); err != nil {
		return nil, err
	}
	v := &types.View{BoardID: boardID, Name: strings.TrimSpace(spec.Name), Type: spec.Type, Config: spec.Config}
	if v.Name == "" {
		return nil, types.ErrInvalidName
	}
	if v.Type != types.ViewTable && v.Type != types.ViewKanban {
		return nil, fmt.Errorf("%w: type %q", types.ErrInvalidView, v.Type)
	}
	if v.Type == types.ViewKanban && v.Config.GroupBy == "" {
		return nil, fmt.Errorf("%w: kanban view needs a group-by property", types.ErrInvalidView)
	}
	if err := query.ValidateConfig(schema.NewIndex(b.Properties), v.Config); err != nil {
		return nil, err
	}
	v.IsDefault = len(b.Views) == 0
	if err := s.store.Commit([]types.Write{types.SetWrite(types.TableViews, "", v)}); err != nil {
		return nil, fmt.Errorf("create view: %w", err)
	}
	s.recordView(actor, audit.ActionCreate, v, fmt.Sprintf("created view %q", v.Name))
	return v, nil
}

// UpdateViewConfig replaces a view's persisted config after validating it
// against the board's schema.
func (s *Service) UpdateViewConfig(actor types.Actor, viewID string, cfg types.ViewConfig) (*types.View, error) {
	v, b, res, err := s.authorizeView(actor, viewID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanEditBoard, "update view"); err != nil {
		return nil, err
	}
	if v.Type == types.ViewKanban && cfg.GroupBy == "" {
		return nil, fmt.Errorf("%w: kanban view needs a group-by property", types.ErrInvalidView)
	}
	if err := query.ValidateConfig(schema.NewIndex(b.Properties), cfg); err != nil {
		return nil, err
	}
	v.Config = cfg.Clone()
	if err := s.store.Commit([]types.Write{types.SetWrite(types.TableViews, v.ViewID, v)}); err != nil {
		return nil, fmt.Errorf("update view: %w", err)
	}
	s.recordView(actor, audit.ActionUpdate, v, fmt.Sprintf("updated view %q", v.Name))
	return v, nil
}

// SetDefaultView makes a view its board's only default.
func (s *Service) SetDefaultView(actor types.Actor, viewID string) error {
	v, b, res, err := s.authorizeView(actor, viewID)
	if err != nil {
		return err
	}
	if err := access.Require(res, res.Permissions.CanEditBoard, "set default view"); err != nil {
		return err
	}
	var writes []types.Write
	for i := range b.Views {
		other := b.Views[i]
		want := other.ViewID == v.ViewID
		if other.IsDefault == want {
			continue
		}
		other.IsDefault = want
		writes = append(writes, types.SetWrite(types.TableViews, other.ViewID, &other))
	}
	if err := s.store.Commit(writes); err != nil {
		return fmt.Errorf("set default view: %w", err)
	}
	s.recordView(actor, audit.ActionUpdate, v, fmt.Sprintf("made %q the default view", v.Name))
	return nil
}

// DeleteView removes a view. When the default view goes, the first
// remaining view becomes the default in the same commit.
func (s *Service) DeleteView(actor types.Actor, viewID string) error {
	v, b, res, err := s.authorizeView(actor, viewID)
	if err != nil {
		return err
	}
	if err := access.Require(res, res.Permissions.CanEditBoard, "delete view"); err != nil {
		return err
	}
	writes := []types.Write{types.DeleteWrite(types.TableViews, v.ViewID)}
	if v.IsDefault {
		for i := range b.Views {
			if b.Views[i].ViewID != v.ViewID {
				next := b.Views[i]
				next.IsDefault = true
				writes = append(writes, types.SetWrite(types.TableViews, next.ViewID, &next))
				break
			}
		}
	}
	if err := s.store.Commit(writes); err != nil {
		return fmt.Errorf("delete view: %w", err)
	}
	s.recordView(actor, audit.ActionDelete, v, fmt.Sprintf("deleted view %q", v.Name))
	return nil
}

// ApplyView runs a view over the tasks actor may see with the given
// toolbar state. Person columns are headed by the owner, then members.
func (s *Service) ApplyView(actor types.Actor, viewID string, tb query.Toolbar) (*query.Result, error) {
	v, b, res, err := s.authorizeView(actor, viewID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanView, "view tasks"); err != nil {
		return nil, err
	}
	tasks, err := s.boardTasks(b.BoardID)
	if err != nil {
		return nil, err
	}
	users, err := s.boardUsers(b)
	if err != nil {
		return nil, err
	}
	return query.Apply(visibleTasks(res, b, tasks), schema.NewIndex(b.Properties), v.Config, tb, query.WithUsers(users))
}

// DefaultView returns the board's default view, or its first view when
// none is marked.
func DefaultView(b *types.Board) (*types.View, bool) {
	for i := range b.Views {
		if b.Views[i].IsDefault {
			return &b.Views[i], true
		}
	}
	if len(b.Views) > 0 {
		return &b.Views[0], true
	}
	return nil, false
}
