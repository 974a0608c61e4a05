package sqlite

// Schema DDL for all tables. JSON-typed columns hold the JSON encoding of
// the nested structures (property schema, view config, task values,
// permission lists).
const (
	createBoards = `CREATE TABLE boards (
    board_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    visibility TEXT NOT NULL,
    properties TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createViews = `CREATE TABLE views (
    view_id TEXT PRIMARY KEY,
    board_id TEXT NOT NULL,
    name TEXT NOT NULL,
    view_type TEXT NOT NULL,
    is_default INTEGER NOT NULL,
    config TEXT NOT NULL
);`

	createTasks = `CREATE TABLE tasks (
    task_id TEXT PRIMARY KEY,
    board_id TEXT NOT NULL,
    title TEXT NOT NULL,
    ord REAL NOT NULL,
    properties TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createMembers = `CREATE TABLE members (
    member_id TEXT PRIMARY KEY,
    board_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL,
    permissions TEXT NOT NULL,
    added_by TEXT NOT NULL,
    added_at TEXT NOT NULL
);`

	createInvitations = `CREATE TABLE invitations (
    invitation_id TEXT PRIMARY KEY,
    board_id TEXT NOT NULL,
    email TEXT NOT NULL,
    role TEXT NOT NULL,
    permissions TEXT NOT NULL,
    invited_by TEXT NOT NULL,
    status TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    created_at TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxViewsBoard         = `CREATE INDEX idx_views_board ON views(board_id);`
	idxTasksBoard         = `CREATE INDEX idx_tasks_board ON tasks(board_id, ord);`
	idxMembersUnique      = `CREATE UNIQUE INDEX idx_members_board_user ON members(board_id, user_id);`
	idxMembersUser        = `CREATE INDEX idx_members_user ON members(user_id);`
	idxInvitationsBoard   = `CREATE INDEX idx_invitations_board ON invitations(board_id);`
	idxInvitationsEmail   = `CREATE INDEX idx_invitations_email ON invitations(email);`
	idxBoardsOwner        = `CREATE INDEX idx_boards_owner ON boards(owner_id);`
	idxBoardsVisibility   = `CREATE INDEX idx_boards_visibility ON boards(visibility);`
	idxTasksCreatedBy     = `CREATE INDEX idx_tasks_created_by ON tasks(created_by);`
	idxInvitationsPending = `CREATE INDEX idx_invitations_status ON invitations(status);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createBoards,
	createViews,
	createTasks,
	createMembers,
	createInvitations,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxViewsBoard,
	idxTasksBoard,
	idxMembersUnique,
	idxMembersUser,
	idxInvitationsBoard,
	idxInvitationsEmail,
	idxBoardsOwner,
	idxBoardsVisibility,
	idxTasksCreatedBy,
	idxInvitationsPending,
}

// tableSpec ties a SQLite table to its JSONL file. The column list drives
// both loading and persisting; columns in jsonColumns are written to JSONL
// as nested JSON rather than as strings.
type tableSpec struct {
	name        string
	file        string
	columns     []string
	jsonColumns map[string]bool
	orderBy     string
}

// tableSpecs is in load order: boards before the tables that refer to them.
var tableSpecs = []tableSpec{
	{
		name:        "boards",
		file:        "boards.jsonl",
		columns:     []string{"board_id", "name", "owner_id", "visibility", "properties", "created_at", "updated_at"},
		jsonColumns: map[string]bool{"properties": true},
		orderBy:     "created_at, board_id",
	},
	{
		name:        "views",
		file:        "views.jsonl",
		columns:     []string{"view_id", "board_id", "name", "view_type", "is_default", "config"},
		jsonColumns: map[string]bool{"config": true},
		orderBy:     "rowid",
	},
	{
		name:        "tasks",
		file:        "tasks.jsonl",
		columns:     []string{"task_id", "board_id", "title", "ord", "properties", "created_by", "created_at", "updated_at"},
		jsonColumns: map[string]bool{"properties": true},
		orderBy:     "board_id, ord, created_at, task_id",
	},
	{
		name:        "members",
		file:        "members.jsonl",
		columns:     []string{"member_id", "board_id", "user_id", "role", "permissions", "added_by", "added_at"},
		jsonColumns: map[string]bool{"permissions": true},
		orderBy:     "board_id, added_at, member_id",
	},
	{
		name:        "invitations",
		file:        "invitations.jsonl",
		columns:     []string{"invitation_id", "board_id", "email", "role", "permissions", "invited_by", "status", "expires_at", "created_at"},
		jsonColumns: map[string]bool{"permissions": true},
		orderBy:     "board_id, created_at, invitation_id",
	},
}

func specFor(name string) (tableSpec, bool) {
	for _, s := range tableSpecs {
		if s.name == name {
			return s, true
		}
	}
	return tableSpec{}, false
}
