package service

import (
	"fmt"

	"github.com/mesh-intelligence/taskboard/internal/access"
	"github.com/mesh-intelligence/taskboard/internal/audit"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// checkRole validates a role a member or invitation may be given. The
// owner role is only ever set by board creation and ownership transfer.
func checkRole(role string, perms []string) error {
	if role == types.RoleOwner || !access.ValidRole(role) {
		return fmt.Errorf("%w: %q", types.ErrInvalidRole, role)
	}
	if role == types.RoleCustom {
		if len(perms) == 0 || !access.ValidPermissions(perms) {
			return fmt.Errorf("%w: custom permissions %v", types.ErrInvalidRole, perms)
		}
		return nil
	}
	if len(perms) > 0 {
		return fmt.Errorf("%w: permissions given for fixed role %q", types.ErrInvalidRole, role)
	}
	return nil
}

// ListMembers returns a board's member rows in the order they were added.
func (s *Service) ListMembers(actor types.Actor, boardID string) ([]*types.BoardMember, error) {
	_, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanView, "list members"); err != nil {
		return nil, err
	}
	return fetch[*types.BoardMember](s.store, types.TableMembers, types.Filter{"board_id": boardID})
}

// boardUsers lists the user IDs that head person columns: the owner first,
// then members in the order they were added.
func (s *Service) boardUsers(b *types.Board) ([]string, error) {
	members, err := fetch[*types.BoardMember](s.store, types.TableMembers, types.Filter{"board_id": b.BoardID})
	if err != nil {
		return nil, err
	}
	users := []string{b.OwnerID}
	for _, m := range members {
		if m.UserID != b.OwnerID {
			users = append(users, m.UserID)
		}
	}
	return users, nil
}

func (s *Service) member(boardID, userID string) (*types.BoardMember, error) {
	m, err := storeLookup{store: s.store}.Member(boardID, userID)
	if err != nil {
		return nil, fmt.Errorf("member %s of board %s: %w", userID, boardID, err)
	}
	return m, nil
}

// AddMember gives userID a role on a board directly, without an
// invitation.
func (s *Service) AddMember(actor types.Actor, boardID, userID, role string, perms []string) (*types.BoardMember, error) {
	_, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanManageMembers, "add member"); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, fmt.Errorf("add member: %w", types.ErrInvalidID)
	}
	if err := checkRole(role, perms); err != nil {
		return nil, err
	}
	m := &types.BoardMember{BoardID: boardID, UserID: userID, Role: role, Permissions: perms, AddedBy: actor.UserID}
	if err := s.store.Commit([]types.Write{types.SetWrite(types.TableMembers, "", m)}); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionCreate,
		entityType:  audit.EntityMember,
		entityID:    m.MemberID,
		boardID:     boardID,
		activity:    ActivityMemberAdded,
		description: fmt.Sprintf("added %s as %s", userID, role),
		details:     map[string]any{"user_id": userID, "role": role},
	})
	return m, nil
}

// ChangeRole replaces a member's role. The owner's row cannot be changed;
// use TransferOwnership.
func (s *Service) ChangeRole(actor types.Actor, boardID, userID, role string, perms []string) (*types.BoardMember, error) {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanManageMembers, "change member role"); err != nil {
		return nil, err
	}
	if err := checkRole(role, perms); err != nil {
		return nil, err
	}
	if userID == b.OwnerID {
		return nil, types.ErrOwnerImmutable
	}
	m, err := s.member(boardID, userID)
	if err != nil {
		return nil, err
	}
	previous := m.Role
	m.Role = role
	m.Permissions = perms
	if err := s.store.Commit([]types.Write{types.SetWrite(types.TableMembers, m.MemberID, m)}); err != nil {
		return nil, fmt.Errorf("change member role: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionUpdate,
		entityType:  audit.EntityMember,
		entityID:    m.MemberID,
		boardID:     boardID,
		activity:    ActivityMemberUpdated,
		description: fmt.Sprintf("changed %s from %s to %s", userID, previous, role),
		details:     map[string]any{"user_id": userID, "from": previous, "to": role},
	})
	return m, nil
}

// RemoveMember deletes a member row. Members may always remove themselves;
// removing anyone else needs the manage-members capability. The owner's
// row cannot be removed.
func (s *Service) RemoveMember(actor types.Actor, boardID, userID string) error {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return err
	}
	if userID != actor.UserID {
		if err := access.Require(res, res.Permissions.CanManageMembers, "remove member"); err != nil {
			return err
		}
	}
	if userID == b.OwnerID {
		return types.ErrOwnerImmutable
	}
	m, err := s.member(boardID, userID)
	if err != nil {
		return err
	}
	if err := s.store.Commit([]types.Write{types.DeleteWrite(types.TableMembers, m.MemberID)}); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionDelete,
		entityType:  audit.EntityMember,
		entityID:    m.MemberID,
		boardID:     boardID,
		activity:    ActivityMemberRemoved,
		description: fmt.Sprintf("removed %s", userID),
		details:     map[string]any{"user_id": userID, "role": m.Role},
	})
	return nil
}

// TransferOwnership makes newOwnerID the board's owner. The outgoing
// owner's row becomes admin and the incoming owner's row becomes owner;
// missing rows are created. Board and rows change in one commit.
func (s *Service) TransferOwnership(actor types.Actor, boardID, newOwnerID string) error {
	b, res, err := s.authorize(actor, boardID)
	if err != nil {
		return err
	}
	if err := access.Require(res, res.Role == types.RoleOwner, "transfer ownership"); err != nil {
		return err
	}
	if newOwnerID == "" {
		return fmt.Errorf("transfer ownership: %w", types.ErrInvalidID)
	}
	if newOwnerID == b.OwnerID {
		return nil
	}
	oldOwnerID := b.OwnerID

	outgoing, err := s.member(boardID, oldOwnerID)
	if err != nil && !types.IsNotFound(err) {
		return err
	}
	if outgoing == nil {
		outgoing = &types.BoardMember{BoardID: boardID, UserID: oldOwnerID, AddedBy: actor.UserID}
	}
	outgoing.Role = types.RoleAdmin
	outgoing.Permissions = nil

	incoming, err := s.member(boardID, newOwnerID)
	if err != nil && !types.IsNotFound(err) {
		return err
	}
	if incoming == nil {
		incoming = &types.BoardMember{BoardID: boardID, UserID: newOwnerID, AddedBy: actor.UserID}
	}
	incoming.Role = types.RoleOwner
	incoming.Permissions = nil

	b.OwnerID = newOwnerID
	writes := []types.Write{
		types.SetWrite(types.TableBoards, b.BoardID, b),
		types.SetWrite(types.TableMembers, outgoing.MemberID, outgoing),
		types.SetWrite(types.TableMembers, incoming.MemberID, incoming),
	}
	if err := s.store.Commit(writes); err != nil {
		return fmt.Errorf("transfer ownership: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionUpdate,
		entityType:  audit.EntityBoard,
		entityID:    boardID,
		boardID:     boardID,
		activity:    ActivityOwnershipTransferred,
		description: fmt.Sprintf("transferred ownership from %s to %s", oldOwnerID, newOwnerID),
		details:     map[string]any{"from": oldOwnerID, "to": newOwnerID},
	})
	return nil
}
