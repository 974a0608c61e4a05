package service

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/taskboard/internal/access"
	"github.com/mesh-intelligence/taskboard/internal/audit"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Invite offers role on a board to an email address. The invitation stays
// pending for the configured TTL. A second pending invitation for the same
// address is rejected.
func (s *Service) Invite(actor types.Actor, boardID, email, role string, perms []string) (*types.BoardInvitation, error) {
	_, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanManageMembers, "invite"); err != nil {
		return nil, err
	}
	if err := checkRole(role, perms); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	pending, err := s.invitations(types.Filter{"board_id": boardID, "email": email, "status": types.InvitationPending})
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("%w: %s already has a pending invitation", types.ErrDuplicateID, email)
	}

	inv := &types.BoardInvitation{
		BoardID:     boardID,
		Email:       email,
		Role:        role,
		Permissions: perms,
		InvitedBy:   actor.UserID,
		Status:      types.InvitationPending,
		ExpiresAt:   s.now().Add(s.ttl).UTC(),
	}
	if err := s.store.Commit([]types.Write{types.SetWrite(types.TableInvitations, "", inv)}); err != nil {
		return nil, fmt.Errorf("invite: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionCreate,
		entityType:  audit.EntityInvitation,
		entityID:    inv.InvitationID,
		boardID:     boardID,
		activity:    ActivityInvitationSent,
		description: fmt.Sprintf("invited %s as %s", inv.Email, role),
		details:     map[string]any{"email": inv.Email, "role": role},
	})
	return inv, nil
}

// invitations fetches invitations and expires the pending ones that are
// past their deadline, storing the new status before returning.
func (s *Service) invitations(filter types.Filter) ([]*types.BoardInvitation, error) {
	all, err := fetch[*types.BoardInvitation](s.store, types.TableInvitations, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var writes []types.Write
	out := all[:0]
	for _, inv := range all {
		if inv.Expire(now) {
			writes = append(writes, types.SetWrite(types.TableInvitations, inv.InvitationID, inv))
			if status, ok := filter["status"].(string); ok && status != inv.Status {
				continue
			}
		}
		out = append(out, inv)
	}
	if err := s.store.Commit(writes); err != nil {
		return nil, fmt.Errorf("expiring invitations: %w", err)
	}
	return out, nil
}

// invitation loads one invitation, expiring it if it is overdue.
func (s *Service) invitation(id string) (*types.BoardInvitation, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	inv, err := get[*types.BoardInvitation](s.store, types.TableInvitations, id)
	if err != nil {
		return nil, fmt.Errorf("invitation %s: %w", id, err)
	}
	if inv.Expire(s.now()) {
		if err := s.store.Commit([]types.Write{types.SetWrite(types.TableInvitations, inv.InvitationID, inv)}); err != nil {
			return nil, fmt.Errorf("expiring invitation: %w", err)
		}
	}
	return inv, nil
}

// ListInvitations returns a board's invitations, oldest first.
func (s *Service) ListInvitations(actor types.Actor, boardID string) ([]*types.BoardInvitation, error) {
	_, res, err := s.authorize(actor, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(res, res.Permissions.CanManageMembers, "list invitations"); err != nil {
		return nil, err
	}
	return s.invitations(types.Filter{"board_id": boardID})
}

// PendingInvitations returns the pending invitations addressed to actor's
// email across all boards.
func (s *Service) PendingInvitations(actor types.Actor) ([]*types.BoardInvitation, error) {
	email := strings.ToLower(strings.TrimSpace(actor.Email))
	if email == "" {
		return nil, nil
	}
	return s.invitations(types.Filter{"email": email, "status": types.InvitationPending})
}

// respond loads a pending invitation addressed to actor.
func (s *Service) respond(actor types.Actor, id, op string) (*types.BoardInvitation, error) {
	inv, err := s.invitation(id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(actor.Email), inv.Email) {
		return nil, fmt.Errorf("%s invitation %s: %w", op, id, types.ErrForbidden)
	}
	if inv.Status != types.InvitationPending {
		return nil, fmt.Errorf("%s: %w: status is %s", op, types.ErrInvalidInvitation, inv.Status)
	}
	return inv, nil
}

// AcceptInvitation creates actor's member row with the invited role and
// marks the invitation accepted, in one commit. actor's email must match
// the invitation.
func (s *Service) AcceptInvitation(actor types.Actor, invitationID string) (*types.BoardMember, error) {
	inv, err := s.respond(actor, invitationID, "accept")
	if err != nil {
		return nil, err
	}
	if actor.UserID == "" {
		return nil, fmt.Errorf("accept: %w: no acting user", types.ErrInvalidID)
	}
	inv.Status = types.InvitationAccepted
	m := &types.BoardMember{
		BoardID:     inv.BoardID,
		UserID:      actor.UserID,
		Role:        inv.Role,
		Permissions: inv.Permissions,
		AddedBy:     inv.InvitedBy,
	}
	writes := []types.Write{
		types.SetWrite(types.TableInvitations, inv.InvitationID, inv),
		types.SetWrite(types.TableMembers, "", m),
	}
	if err := s.store.Commit(writes); err != nil {
		return nil, fmt.Errorf("accept invitation: %w", err)
	}
	s.record(actor, event{
		action:      audit.ActionUpdate,
		entityType:  audit.EntityInvitation,
		entityID:    inv.InvitationID,
		boardID:     inv.BoardID,
		activity:    ActivityInvitationAccepted,
		description: fmt.Sprintf("%s joined as %s", inv.Email, inv.Role),
		details:     map[string]any{"member_id": m.MemberID, "role": inv.Role},
	})
	return m, nil
}

// DeclineInvitation marks an invitation addressed to actor as declined.
func (s *Service) DeclineInvitation(actor types.Actor, invitationID string) error {
	inv, err := s.respond(actor, invitationID, "decline")
	if err != nil {
		return err
	}
	return s.closeInvitation(actor, inv, types.InvitationDeclined, ActivityInvitationDeclined)
}

// CancelInvitation withdraws a pending invitation.
func (s *Service) CancelInvitation(actor types.Actor, invitationID string) error {
	inv, err := s.invitation(invitationID)
	if err != nil {
		return err
	}
	_, res, err := s.authorize(actor, inv.BoardID)
	if err != nil {
		return err
	}
	if err := access.Require(res, res.Permissions.CanManageMembers, "cancel invitation"); err != nil {
		return err
	}
	if inv.Status != types.InvitationPending {
		return fmt.Errorf("cancel: %w: status is %s", types.ErrInvalidInvitation, inv.Status)
	}
	return s.closeInvitation(actor, inv, types.InvitationCancelled, ActivityInvitationCancelled)
}

func (s *Service) closeInvitation(actor types.Actor, inv *types.BoardInvitation, status, activity string) error {
	inv.Status = status
	if err := s.store.Commit([]types.Write{types.SetWrite(types.TableInvitations, inv.InvitationID, inv)}); err != nil {
		return fmt.Errorf("%s invitation: %w", status, err)
	}
	s.record(actor, event{
		action:      audit.ActionUpdate,
		entityType:  audit.EntityInvitation,
		entityID:    inv.InvitationID,
		boardID:     inv.BoardID,
		activity:    activity,
		description: fmt.Sprintf("invitation for %s %s", inv.Email, status),
		details:     map[string]any{"status": status},
	})
	return nil
}
