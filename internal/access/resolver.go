package access

import (
	"fmt"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Lookup reads the rows an access decision needs. Member returns an error
// satisfying types.IsNotFound when the user has no row on the board.
type Lookup interface {
	Board(boardID string) (*types.Board, error)
	Member(boardID, userID string) (*types.BoardMember, error)
}

// Resolver computes access from stored boards and members.
type Resolver struct {
	lookup    Lookup
	adminRole string
}

// NewResolver returns a resolver reading from lookup. An empty adminRole
// selects DefaultAdminRole.
func NewResolver(lookup Lookup, adminRole string) *Resolver {
	if adminRole == "" {
		adminRole = DefaultAdminRole
	}
	return &Resolver{lookup: lookup, adminRole: adminRole}
}

// Resolve computes the actor's access to boardID. A missing board is
// reported as not found; a missing member row is not an error.
func (r *Resolver) Resolve(actor types.Actor, boardID string) (types.AccessResult, error) {
	b, err := r.lookup.Board(boardID)
	if err != nil {
		return types.AccessResult{}, err
	}
	return r.ResolveBoard(actor, b)
}

// ResolveBoard is Resolve for a board the caller already loaded.
func (r *Resolver) ResolveBoard(actor types.Actor, b *types.Board) (types.AccessResult, error) {
	in := Input{Actor: actor, Board: b, AdminRole: r.adminRole}
	if actor.UserID != "" && actor.GlobalRole != r.adminRole && actor.UserID != b.OwnerID {
		m, err := r.lookup.Member(b.BoardID, actor.UserID)
		switch {
		case err == nil:
			in.Member = m
		case types.IsNotFound(err):
		default:
			return types.AccessResult{}, fmt.Errorf("resolving access to board %s: %w", b.BoardID, err)
		}
	}
	return Evaluate(in), nil
}
