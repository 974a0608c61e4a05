package types

import "time"

// Role names for board members. A member whose Role is RoleCustom takes
// its capabilities from Permissions instead of the fixed role table.
const (
	RoleOwner            = "owner"
	RoleAdmin            = "admin"
	RoleEditor           = "editor"
	RoleViewer           = "viewer"
	RoleRestrictedEditor = "restricted_editor"
	RoleRestrictedViewer = "restricted_viewer"
	RoleCustom           = "custom"
)

// Permission identifiers used by custom roles.
const (
	PermBoardView         = "board.view"
	PermViewScopeAssigned = "view.scope.assigned"
	PermTaskCreate        = "task.create"
	PermTaskEdit          = "task.edit"
	PermEditScopeAssigned = "edit.scope.assigned"
	PermTaskDelete        = "task.delete"
	PermBoardEdit         = "board.edit"
	PermMembersManage     = "members.manage"
	PermBoardDelete       = "board.delete"
)

// KnownPermissions lists every permission a custom role may hold.
var KnownPermissions = []string{
	PermBoardView,
	PermViewScopeAssigned,
	PermTaskCreate,
	PermTaskEdit,
	PermEditScopeAssigned,
	PermTaskDelete,
	PermBoardEdit,
	PermMembersManage,
	PermBoardDelete,
}

// BoardMember grants a user a role on a board. Unique per (BoardID, UserID).
type BoardMember struct {
	MemberID    string    `json:"id"`
	BoardID     string    `json:"boardId"`
	UserID      string    `json:"userId"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions,omitempty"`
	AddedBy     string    `json:"addedBy"`
	AddedAt     time.Time `json:"addedAt"`
}

// Invitation statuses.
const (
	InvitationPending   = "pending"
	InvitationAccepted  = "accepted"
	InvitationDeclined  = "declined"
	InvitationCancelled = "cancelled"
	InvitationExpired   = "expired"
)

// BoardInvitation offers a role on a board to an email address.
type BoardInvitation struct {
	InvitationID string    `json:"id"`
	BoardID      string    `json:"boardId"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions,omitempty"`
	InvitedBy    string    `json:"invitedBy"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Expire moves a pending invitation past its deadline to expired and
// reports whether the status changed.
func (inv *BoardInvitation) Expire(now time.Time) bool {
	if inv.Status != InvitationPending || now.Before(inv.ExpiresAt) {
		return false
	}
	inv.Status = InvitationExpired
	return true
}

// Scope values for edit and view scoping.
const (
	ScopeAll      = "all"
	ScopeAssigned = "assigned"
)

// Permissions is the capability object computed by the access resolver.
type Permissions struct {
	CanView          bool   `json:"canView"`
	CanCreateTasks   bool   `json:"canCreateTasks"`
	CanEditTasks     bool   `json:"canEditTasks"`
	CanDeleteTasks   bool   `json:"canDeleteTasks"`
	CanEditBoard     bool   `json:"canEditBoard"`
	CanManageMembers bool   `json:"canManageMembers"`
	CanDeleteBoard   bool   `json:"canDeleteBoard"`
	EditScope        string `json:"editScope"`
	ViewScope        string `json:"viewScope"`
}

// AccessResult is a user's capability set on one board. It is computed per
// request and never cached.
type AccessResult struct {
	UserID      string      `json:"userId"`
	BoardID     string      `json:"boardId"`
	HasAccess   bool        `json:"hasAccess"`
	Role        string      `json:"role"`
	Permissions Permissions `json:"permissions"`
}

// Actor is the acting user as reported by the identity provider.
type Actor struct {
	UserID     string `json:"userId"`
	GlobalRole string `json:"globalRole,omitempty"`
	Email      string `json:"email,omitempty"`
}
