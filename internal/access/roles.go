package access

import "github.com/mesh-intelligence/taskboard/pkg/types"

// roleTable holds the capability set of each fixed role. Custom roles are
// computed from their permission list by fromPermissions.
var roleTable = map[string]types.Permissions{
	types.RoleOwner: {
		CanView: true, CanCreateTasks: true, CanEditTasks: true, CanDeleteTasks: true,
		CanEditBoard: true, CanManageMembers: true, CanDeleteBoard: true,
		EditScope: types.ScopeAll, ViewScope: types.ScopeAll,
	},
	types.RoleAdmin: {
		CanView: true, CanCreateTasks: true, CanEditTasks: true, CanDeleteTasks: true,
		CanEditBoard: true, CanManageMembers: true,
		EditScope: types.ScopeAll, ViewScope: types.ScopeAll,
	},
	types.RoleEditor: {
		CanView: true, CanCreateTasks: true, CanEditTasks: true, CanDeleteTasks: true,
		EditScope: types.ScopeAll, ViewScope: types.ScopeAll,
	},
	types.RoleViewer: {
		CanView:   true,
		EditScope: types.ScopeAll, ViewScope: types.ScopeAll,
	},
	types.RoleRestrictedEditor: {
		CanView: true, CanCreateTasks: true, CanEditTasks: true,
		EditScope: types.ScopeAssigned, ViewScope: types.ScopeAll,
	},
	types.RoleRestrictedViewer: {
		CanView:   true,
		EditScope: types.ScopeAll, ViewScope: types.ScopeAssigned,
	},
}

// ValidRole reports whether role names a fixed role or the custom role.
func ValidRole(role string) bool {
	if role == types.RoleCustom {
		return true
	}
	_, ok := roleTable[role]
	return ok
}

// ValidPermissions reports whether every entry of perms is a known
// permission ID.
func ValidPermissions(perms []string) bool {
	for _, p := range perms {
		known := false
		for _, k := range types.KnownPermissions {
			if p == k {
				known = true
				break
			}
		}
		if !known {
			return false
		}
	}
	return true
}

// RolePermissions returns the capability set of a fixed role.
func RolePermissions(role string) (types.Permissions, bool) {
	p, ok := roleTable[role]
	return p, ok
}

func fromPermissions(perms []string) types.Permissions {
	var p types.Permissions
	var editAssigned, viewAssigned bool
	for _, id := range perms {
		switch id {
		case types.PermBoardView:
			p.CanView = true
		case types.PermViewScopeAssigned:
			viewAssigned = true
		case types.PermTaskCreate:
			p.CanCreateTasks = true
		case types.PermTaskEdit:
			p.CanEditTasks = true
		case types.PermEditScopeAssigned:
			editAssigned = true
		case types.PermTaskDelete:
			p.CanDeleteTasks = true
		case types.PermBoardEdit:
			p.CanEditBoard = true
		case types.PermMembersManage:
			p.CanManageMembers = true
		case types.PermBoardDelete:
			p.CanDeleteBoard = true
		}
	}
	if p.CanView {
		p.ViewScope = types.ScopeAll
		if viewAssigned {
			p.ViewScope = types.ScopeAssigned
		}
	}
	p.EditScope = types.ScopeAll
	if editAssigned {
		p.EditScope = types.ScopeAssigned
	}
	return p
}
