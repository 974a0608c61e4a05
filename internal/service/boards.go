package service

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/taskboard/internal/access"
	"github.com/mesh-intelligence/taskboard/internal/audit"
	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// BoardSpec describes a board to create. A nil Properties list seeds the
// default schema; an empty one creates a board with no properties.
type BoardSpec struct {
	Name       string
	Visibility types.Visibility
	Properties []schema.PropertySpec
}

// BoardPatch updates a board. Nil fields are left as they are.
type BoardPatch struct {
	Name       *string
	Visibility *types.Visibility
}

// defaultProperties is the schema a board starts with.
var defaultProperties = []schema.PropertySpec{
	{Name: "Status", Type: types.PropertyStatus, Options: []schema.OptionSpec{
		{Label: "Not started", Color: "gray"},
		{Label: "In progress", Color: "blue"},
		{Label: "Done", Color: "green"},
	}},
	{Name: "Assignee", Type: types.PropertyPerson},
	{Name: "Due", Type: types.PropertyDate},
	{Name: "Priority", Type: types.PropertySelect, Options: []schema.OptionSpec{
		{Label: "High", Color: "red"},
		{Label: "Medium", Color: "yellow"},
		{Label: "Low", Color: "gray"},
	}},
}

// CreateBoard creates a board owned by actor together with the owner's
// member row and the default views: a table of every property and, when the
// schema has a status property, a kanban grouped by it.
func (s *Service) CreateBoard(actor types.Actor, spec BoardSpec) (*types.Board, error) {
	if actor.UserID == "" {
		return nil, fmt.Errorf("create board: %w: no acting user", types.ErrInvalidID)
	}
	b := &types.Board{
		BoardID:    newID(),
		Name:       strings.TrimSpace(spec.Name),
		OwnerID:    actor.UserID,
		Visibility: spec.Visibility,
	}
	if b.Name == "" {
		return nil, types.ErrInvalidName
	}
	if b.Visibility == "" {
		b.Visibility = types.VisibilityPrivate
	}
	if !b.Visibility.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidVisibility, b.Visibility)
	}
	specs := spec.Properties
	if specs == nil {
		specs = defaultProperties
	}
	for _, ps := range specs {
		if _, err := schema.AddProperty(b, ps); err != nil {
			return nil, err
		}
	}

	owner := &types.BoardMember{BoardID: b.BoardID, UserID: actor.UserID, Role: types.RoleOwner, AddedBy: actor.UserID}
	views := defaultViews(b)
	writes := []types.Write{
		types.SetWrite(types.TableBoards, b.BoardID, b),
		types.SetWrite(types.TableMembers, "", owner),
	}
	for i := range views {
		writes = append(writes, types.SetWrite(types.TableViews, "", &views[i]))
	}
	if err := s.store.Commit(writes); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	b.Views = views

	s.record(actor, event{
		action:      audit.ActionCreate,
		entityType:  audit.EntityBoard,
		entityID:    b.BoardID,
		boardID:     b.BoardID,
		activity:    ActivityBoardCreated,
		description: fmt.Sprintf("created board %q", b.Name),
		details:     map[string]any{"name": b.Name, "visibility": string(b.Visibility)},
	})
	return b, nil
}

func defaultViews(b *types.Board) []types.View {
	views := []types.View{{BoardID: b.BoardID, Name: "All tasks", Type: types.ViewTable, IsDefault: true}}
	for _, p := range schema.NewIndex(b.Properties).Properties() {
		if p.Type == types.PropertyStatus {
			views = append(views, types.View{
				BoardID: b.BoardID,
				Name:    "Board",
				Type:    types.ViewKanban,
				Config:  types.ViewConfig{GroupBy: p.PropertyID},
			})
			break
		}
	}
	return views
}

// GetBoard returns a board with its views.
func (s *Service) GetBoard(actor types.Actor, boardID string) (*types.Board, error) {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanView, "view board"); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBoards returns every board actor can view, oldest first.
func (s *Service) ListBoards(actor types.Actor) ([]*types.Board, error) {
	boards, err := fetch[*types.Board](s.store, types.TableBoards, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Board, 0, len(boards))
	for _, b := range boards {
		res, err := s.resolver.ResolveBoard(actor, b)
		if err != nil {
			return nil, err
		}
		if res.HasAccess && res.Permissions.CanView {
			out = append(out, b)
		}
	}
	return out, nil
}

// UpdateBoard renames a board or changes its visibility.
func (s *Service) UpdateBoard(actor types.Actor, boardID string, patch BoardPatch) (*types.Board, error) {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanEditBoard, "edit board"); err != nil {
		return nil, err
	}
	details := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, types.ErrInvalidName
		}
		b.Name = name
		details["name"] = name
	}
	if patch.Visibility != nil {
		if !patch.Visibility.Valid() {
			return nil, fmt.Errorf("%w: %q", types.ErrInvalidVisibility, *patch.Visibility)
		}
		b.Visibility = *patch.Visibility
		details["visibility"] = string(b.Visibility)
	}
	if err := s.store.Commit([]types.Write{types.SetWrite(types.TableBoards, b.BoardID, b)}); err != nil {
		return nil, fmt.Errorf("update board: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionUpdate,
		entityType:  audit.EntityBoard,
		entityID:    b.BoardID,
		boardID:     b.BoardID,
		activity:    ActivityBoardUpdated,
		description: fmt.Sprintf("updated board %q", b.Name),
		details:     details,
	})
	return b, nil
}

// DeleteBoard removes a board with its views, tasks, members and
// invitations.
func (s *Service) DeleteBoard(actor types.Actor, boardID string) error {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return err
	}
	if err := access.Require(res, res.Permissions.CanDeleteBoard, "delete board"); err != nil {
		return err
	}
	if err := s.store.Commit([]types.Write{types.DeleteWrite(types.TableBoards, b.BoardID)}); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionDelete,
		entityType:  audit.EntityBoard,
		entityID:    b.BoardID,
		boardID:     b.BoardID,
		activity:    ActivityBoardDeleted,
		description: fmt.Sprintf("deleted board %q", b.Name),
	})
	return nil
}
