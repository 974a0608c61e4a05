package types

// Standard table names for Store.GetTable.
const (
	TableBoards      = "boards"
	TableViews       = "views"
	TableTasks       = "tasks"
	TableMembers     = "members"
	TableInvitations = "invitations"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TableBoards,
	TableViews,
	TableTasks,
	TableMembers,
	TableInvitations,
}
