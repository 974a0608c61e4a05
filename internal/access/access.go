// Package access resolves what a user may do on a board. Resolution is
// recomputed on every call; nothing is cached between requests.
package access

import (
	"fmt"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// DefaultAdminRole is the global role that overrides board membership.
const DefaultAdminRole = "admin"

// Input is everything one access decision depends on. Member is nil when
// the user has no membership row on the board.
type Input struct {
	Actor     types.Actor
	Board     *types.Board
	Member    *types.BoardMember
	AdminRole string
}

// Evaluate applies the resolution rules in order; the first match wins:
// global admin, board owner, explicit membership, workspace visibility,
// and finally no access.
func Evaluate(in Input) types.AccessResult {
	// EditScope is always set so results serialize as "all" or "assigned".
	res := types.AccessResult{UserID: in.Actor.UserID, Permissions: types.Permissions{EditScope: types.ScopeAll}}
	if in.Board == nil {
		return res
	}
	res.BoardID = in.Board.BoardID

	adminRole := in.AdminRole
	if adminRole == "" {
		adminRole = DefaultAdminRole
	}

	switch {
	case in.Actor.GlobalRole == adminRole:
		return grant(res, types.RoleOwner, roleTable[types.RoleOwner])
	case in.Actor.UserID != "" && in.Actor.UserID == in.Board.OwnerID:
		return grant(res, types.RoleOwner, roleTable[types.RoleOwner])
	}

	if m := in.Member; m != nil && m.UserID == in.Actor.UserID {
		if m.Role == types.RoleCustom {
			p := fromPermissions(m.Permissions)
			res.HasAccess = p.CanView
			res.Role = types.RoleCustom
			res.Permissions = p
			return res
		}
		if p, ok := roleTable[m.Role]; ok {
			return grant(res, m.Role, p)
		}
	}

	if in.Board.Visibility == types.VisibilityWorkspace {
		return grant(res, types.RoleViewer, roleTable[types.RoleViewer])
	}
	return res
}

func grant(res types.AccessResult, role string, p types.Permissions) types.AccessResult {
	res.HasAccess = true
	res.Role = role
	res.Permissions = p
	return res
}

// CanSeeTask reports whether the result allows reading t. Assigned view
// scope limits reading to tasks the user created or is assigned to.
func CanSeeTask(res types.AccessResult, t *types.Task, props []types.Property) bool {
	if !res.HasAccess || !res.Permissions.CanView {
		return false
	}
	if res.Permissions.ViewScope == types.ScopeAssigned {
		return t.IsAssignedTo(res.UserID, props)
	}
	return true
}

// CanWriteTask reports whether the result allows editing t, honouring
// assigned edit scope.
func CanWriteTask(res types.AccessResult, t *types.Task, props []types.Property) bool {
	if !res.HasAccess || !res.Permissions.CanEditTasks {
		return false
	}
	return inEditScope(res, t, props)
}

// CanDeleteTask reports whether the result allows deleting t.
func CanDeleteTask(res types.AccessResult, t *types.Task, props []types.Property) bool {
	if !res.HasAccess || !res.Permissions.CanDeleteTasks {
		return false
	}
	return inEditScope(res, t, props)
}

func inEditScope(res types.AccessResult, t *types.Task, props []types.Property) bool {
	if res.Permissions.EditScope == types.ScopeAssigned {
		return t.IsAssignedTo(res.UserID, props)
	}
	return true
}

// Require returns types.ErrForbidden naming action unless ok holds.
func Require(res types.AccessResult, ok bool, action string) error {
	if res.HasAccess && ok {
		return nil
	}
	return fmt.Errorf("%s on board %s: %w", action, res.BoardID, types.ErrForbidden)
}
