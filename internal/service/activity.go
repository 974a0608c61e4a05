package service

// Activity types reported to the audit sink.
const (
	ActivityBoardCreated         = "board_created"
	ActivityBoardUpdated         = "board_updated"
	ActivityBoardDeleted         = "board_deleted"
	ActivitySchemaChanged        = "schema_changed"
	ActivityTaskCreated          = "task_created"
	ActivityTaskUpdated          = "task_updated"
	ActivityTaskDeleted          = "task_deleted"
	ActivityTasksReordered       = "tasks_reordered"
	ActivityTaskMoved            = "task_moved"
	ActivityTasksFilled          = "tasks_filled"
	ActivityMemberAdded          = "member_added"
	ActivityMemberUpdated        = "member_updated"
	ActivityMemberRemoved        = "member_removed"
	ActivityOwnershipTransferred = "ownership_transferred"
	ActivityInvitationSent       = "invitation_sent"
	ActivityInvitationAccepted   = "invitation_accepted"
	ActivityInvitationDeclined   = "invitation_declined"
	ActivityInvitationCancelled  = "invitation_cancelled"
	ActivityViewChanged          = "view_changed"
)
