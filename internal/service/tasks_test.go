package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/internal/fill"
	"github.com/mesh-intelligence/taskboard/internal/query"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func createTasks(t *testing.T, f *fixture, actor types.Actor, boardID string, titles ...string) []*types.Task {
	t.Helper()
	out := make([]*types.Task, 0, len(titles))
	for _, title := range titles {
		task, err := f.svc.CreateTask(actor, boardID, TaskSpec{Title: title})
		require.NoError(t, err)
		out = append(out, task)
	}
	return out
}

func titles(tasks []*types.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestCreateTaskOrder(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)

	tasks := createTasks(t, f, owner, b.BoardID, "a", "b", "c")
	assert.Equal(t, 0.0, tasks[0].Order)
	assert.Equal(t, 1.0, tasks[1].Order)
	assert.Equal(t, 2.0, tasks[2].Order)
	assert.Equal(t, owner.UserID, tasks[0].CreatedBy)

	require.NoError(t, f.svc.DeleteTask(owner, tasks[2].TaskID))
	next, err := f.svc.CreateTask(owner, b.BoardID, TaskSpec{Title: "d"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, next.Order, "max + 1 over the remaining tasks")
}

func TestCreateTaskValues(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	status := propertyNamed(t, b, "Status")
	done := optionLabeled(t, status, "Done")
	assignee := propertyNamed(t, b, "Assignee")

	task, err := f.svc.CreateTask(editor, b.BoardID, TaskSpec{Title: "Ship", Values: map[string]any{
		status.PropertyID:   done,
		assignee.PropertyID: "vi",
	}})
	require.NoError(t, err)

	got, err := f.svc.GetTask(viewer, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, done, got.Value(status.PropertyID).OptionID())
	assert.Equal(t, []string{"vi"}, got.Value(assignee.PropertyID).IDs())
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	status := propertyNamed(t, b, "Status")
	due := propertyNamed(t, b, "Due")

	tests := []struct {
		name    string
		actor   types.Actor
		values  map[string]any
		wantErr error
	}{
		{"viewer cannot create", viewer, nil, types.ErrForbidden},
		{"stranger cannot create", stranger, nil, types.ErrForbidden},
		{"unknown property", owner, map[string]any{"nope": "x"}, types.ErrPropertyNotFound},
		{"unknown option", owner, map[string]any{status.PropertyID: "not-an-option"}, types.ErrInvalidValue},
		{"wrong shape", owner, map[string]any{status.PropertyID: 3.0}, types.ErrInvalidValue},
		{"bad date", owner, map[string]any{due.PropertyID: "yesterday-ish"}, types.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateTask(tt.actor, b.BoardID, TaskSpec{Title: "x", Values: tt.values})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	tasks, err := f.svc.ListTasks(owner, b.BoardID)
	require.NoError(t, err)
	assert.Empty(t, tasks, "rejected creates store nothing")
}

func TestRequiredProperty(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	status := propertyNamed(t, b, "Status")
	done := optionLabeled(t, status, "Done")

	old := createTasks(t, f, owner, b.BoardID, "before")[0]
	require.NoError(t, f.svc.SetRequired(owner, b.BoardID, status.PropertyID, true))

	_, err := f.svc.CreateTask(owner, b.BoardID, TaskSpec{Title: "no status"})
	assert.ErrorIs(t, err, types.ErrRequiredValue)

	title := "renamed"
	_, err = f.svc.UpdateTask(owner, old.TaskID, TaskPatch{Title: &title})
	assert.NoError(t, err, "untouched required properties are not checked on update")

	_, err = f.svc.UpdateTask(owner, old.TaskID, TaskPatch{Values: map[string]any{status.PropertyID: done}})
	require.NoError(t, err)
	_, err = f.svc.UpdateTask(owner, old.TaskID, TaskPatch{Values: map[string]any{status.PropertyID: nil}})
	assert.ErrorIs(t, err, types.ErrRequiredValue)
}

func TestUpdateTask(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	priority := propertyNamed(t, b, "Priority")
	high := optionLabeled(t, priority, "High")
	task := createTasks(t, f, owner, b.BoardID, "t")[0]

	title := "  Renamed "
	got, err := f.svc.UpdateTask(editor, task.TaskID, TaskPatch{Title: &title, Values: map[string]any{priority.PropertyID: high}})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, high, got.Value(priority.PropertyID).OptionID())
	assert.Equal(t, task.Order, got.Order)

	got, err = f.svc.UpdateTask(editor, task.TaskID, TaskPatch{Values: map[string]any{priority.PropertyID: nil}})
	require.NoError(t, err)
	_, present := got.Properties[priority.PropertyID]
	assert.False(t, present, "a nil value clears the key")

	_, err = f.svc.UpdateTask(viewer, task.TaskID, TaskPatch{Title: &title})
	assert.ErrorIs(t, err, types.ErrForbidden)
	_, err = f.svc.UpdateTask(owner, "missing", TaskPatch{Title: &title})
	assert.True(t, types.IsNotFound(err))
}

func TestAssignedEditScope(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	assignee := propertyNamed(t, b, "Assignee")
	_, err := f.svc.AddMember(owner, b.BoardID, "re", types.RoleRestrictedEditor, nil)
	require.NoError(t, err)
	restricted := types.Actor{UserID: "re"}

	others := createTasks(t, f, owner, b.BoardID, "others")[0]
	own := createTasks(t, f, restricted, b.BoardID, "own")[0]
	assigned, err := f.svc.CreateTask(owner, b.BoardID, TaskSpec{Title: "assigned", Values: map[string]any{assignee.PropertyID: []any{"x", "re"}}})
	require.NoError(t, err)

	title := "edit"
	_, err = f.svc.UpdateTask(restricted, others.TaskID, TaskPatch{Title: &title})
	assert.ErrorIs(t, err, types.ErrForbidden)
	_, err = f.svc.UpdateTask(restricted, own.TaskID, TaskPatch{Title: &title})
	assert.NoError(t, err)
	_, err = f.svc.UpdateTask(restricted, assigned.TaskID, TaskPatch{Title: &title})
	assert.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteTask(restricted, own.TaskID), types.ErrForbidden, "restricted editors cannot delete")
}

func TestFillUsesStoredTasks(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	status := propertyNamed(t, b, "Status")
	done := optionLabeled(t, status, "Done")
	_, err := f.svc.AddMember(owner, b.BoardID, "re", types.RoleRestrictedEditor, nil)
	require.NoError(t, err)
	restricted := types.Actor{UserID: "re"}
	theirs := createTasks(t, f, owner, b.BoardID, "theirs")[0]

	forged := theirs.Clone()
	forged.CreatedBy = "re"
	forged.Title = "renamed"

	tests := []struct {
		name    string
		visible []*types.Task
		want    error
	}{
		{"rewritten creator", []*types.Task{forged}, types.ErrForbidden},
		{"unknown task", []*types.Task{{TaskID: "ghost", BoardID: b.BoardID, CreatedBy: "re"}}, types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := f.svc.StartFill(restricted, b.BoardID, status.PropertyID, done, 0)
			require.NoError(t, err)
			_, err = f.svc.CommitFill(restricted, b.BoardID, sess, tt.visible)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	got, err := f.svc.GetTask(owner, theirs.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "theirs", got.Title)
	assert.True(t, got.Value(status.PropertyID).IsNone())
	all, err := f.svc.ListTasks(owner, b.BoardID)
	require.NoError(t, err)
	assert.Len(t, all, 1, "no task inserted")

	// An owner fill writes the stored row, not the caller's copy.
	sess, err := f.svc.StartFill(owner, b.BoardID, status.PropertyID, done, 0)
	require.NoError(t, err)
	n, err := f.svc.CommitFill(owner, b.BoardID, sess, []*types.Task{forged})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err = f.svc.GetTask(owner, theirs.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "theirs", got.Title)
	assert.Equal(t, owner.UserID, got.CreatedBy)
	assert.Equal(t, done, got.Value(status.PropertyID).OptionID())
}

func TestBulkDelete(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	tasks := createTasks(t, f, owner, b.BoardID, "a", "b", "c")

	err := f.svc.BulkDelete(owner, b.BoardID, []string{tasks[0].TaskID, "missing"})
	assert.True(t, types.IsNotFound(err))
	remaining, err := f.svc.ListTasks(owner, b.BoardID)
	require.NoError(t, err)
	assert.Len(t, remaining, 3, "nothing deleted when one id is bad")

	assert.ErrorIs(t, f.svc.BulkDelete(viewer, b.BoardID, []string{tasks[0].TaskID}), types.ErrForbidden)

	require.NoError(t, f.svc.BulkDelete(editor, b.BoardID, []string{tasks[0].TaskID, tasks[2].TaskID, tasks[0].TaskID}))
	remaining, err = f.svc.ListTasks(owner, b.BoardID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, titles(remaining))
}

func TestDeleteSelection(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	tasks := createTasks(t, f, owner, b.BoardID, "a", "b", "c")

	var sel fill.Selection
	sel.Add(tasks[0].TaskID, tasks[1].TaskID)

	assert.ErrorIs(t, f.svc.DeleteSelection(viewer, b.BoardID, &sel), types.ErrForbidden)
	assert.Equal(t, 2, sel.Len(), "selection kept on failure")

	require.NoError(t, f.svc.DeleteSelection(owner, b.BoardID, &sel))
	assert.Zero(t, sel.Len(), "selection cleared on success")
	remaining, err := f.svc.ListTasks(owner, b.BoardID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, titles(remaining))
}

func TestReorderTask(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	createTasks(t, f, owner, b.BoardID, "a", "b", "c", "d")

	require.NoError(t, f.svc.ReorderTask(editor, b.BoardID, 0, 2))
	got, err := f.svc.ListTasks(owner, b.BoardID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a", "d"}, titles(got))
	for i, task := range got {
		assert.Equal(t, float64(i), task.Order)
	}

	require.NoError(t, f.svc.ReorderTask(editor, b.BoardID, 2, 0))
	got, err = f.svc.ListTasks(owner, b.BoardID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, titles(got), "reorder is a permutation")

	assert.ErrorIs(t, f.svc.ReorderTask(owner, b.BoardID, 0, 4), types.ErrInvalidIndex)
	assert.ErrorIs(t, f.svc.ReorderTask(viewer, b.BoardID, 0, 1), types.ErrForbidden)
}

func TestMoveToGroup(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	status := propertyNamed(t, b, "Status")
	todo := optionLabeled(t, status, "Not started")
	done := optionLabeled(t, status, "Done")
	kanban := viewNamed(t, b, "Board")

	var ids []string
	for _, spec := range []struct{ title, status string }{{"a", todo}, {"b", done}, {"c", done}} {
		task, err := f.svc.CreateTask(owner, b.BoardID, TaskSpec{Title: spec.title, Values: map[string]any{status.PropertyID: spec.status}})
		require.NoError(t, err)
		ids = append(ids, task.TaskID)
	}

	moved, err := f.svc.MoveToGroup(editor, kanban.ViewID, ids[0], done, 1)
	require.NoError(t, err)
	assert.Equal(t, done, moved.Value(status.PropertyID).OptionID())

	res, err := f.svc.ApplyView(owner, kanban.ViewID, query.Toolbar{})
	require.NoError(t, err)
	buckets := map[string][]string{}
	for _, g := range res.Groups {
		buckets[g.Key] = titles(g.Tasks)
	}
	assert.Equal(t, []string{"b", "a", "c"}, buckets[done])
	assert.Empty(t, buckets[todo])

	_, err = f.svc.MoveToGroup(editor, kanban.ViewID, ids[0], "", 0)
	require.NoError(t, err)
	got, err := f.svc.GetTask(owner, ids[0])
	require.NoError(t, err)
	assert.True(t, got.Value(status.PropertyID).IsNone(), "the no-value column clears the property")

	_, err = f.svc.MoveToGroup(editor, kanban.ViewID, ids[0], todo, 99)
	require.NoError(t, err, "an index past the end appends")

	table := viewNamed(t, b, "All tasks")
	_, err = f.svc.MoveToGroup(editor, table.ViewID, ids[0], done, 0)
	assert.ErrorIs(t, err, types.ErrInvalidView)
	_, err = f.svc.MoveToGroup(editor, kanban.ViewID, ids[0], "bogus", 0)
	assert.ErrorIs(t, err, types.ErrInvalidValue)
	_, err = f.svc.MoveToGroup(viewer, kanban.ViewID, ids[0], done, 0)
	assert.ErrorIs(t, err, types.ErrForbidden)
	_, err = f.svc.MoveToGroup(editor, kanban.ViewID, ids[0], done, -1)
	assert.ErrorIs(t, err, types.ErrInvalidIndex)
}

func TestMoveToGroupMultiSelectKeepsOtherTags(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	tags, err := f.svc.AddProperty(owner, b.BoardID, schemaProperty("Tags", types.PropertyMultiSelect, "a", "b", "c"))
	require.NoError(t, err)
	view, err := f.svc.CreateView(owner, b.BoardID, ViewSpec{Name: "By tag", Type: types.ViewKanban, Config: types.ViewConfig{GroupBy: tags.PropertyID}})
	require.NoError(t, err)
	a, bb, c := tags.Options[0].OptionID, tags.Options[1].OptionID, tags.Options[2].OptionID

	task, err := f.svc.CreateTask(owner, b.BoardID, TaskSpec{Title: "t", Values: map[string]any{tags.PropertyID: []any{a, bb}}})
	require.NoError(t, err)

	moved, err := f.svc.MoveToGroup(owner, view.ViewID, task.TaskID, c, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{c, a, bb}, moved.Value(tags.PropertyID).IDs())
}

func TestFill(t *testing.T) {
	for _, drag := range []struct {
		name       string
		start, end int
	}{
		{"downward", 2, 5},
		{"upward", 5, 2},
	} {
		t.Run(drag.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.board(t)
			status := propertyNamed(t, b, "Status")
			done := optionLabeled(t, status, "Done")
			createTasks(t, f, owner, b.BoardID, "t0", "t1", "t2", "t3", "t4", "t5", "t6")
			table := viewNamed(t, b, "All tasks")

			res, err := f.svc.ApplyView(editor, table.ViewID, query.Toolbar{Sorts: []query.Sort{{PropertyID: status.PropertyID, Direction: query.Asc}}})
			require.NoError(t, err)
			visible := res.Visible()

			sess, err := f.svc.StartFill(editor, b.BoardID, status.PropertyID, done, drag.start)
			require.NoError(t, err)
			require.NoError(t, sess.Extend(drag.end))
			n, err := f.svc.CommitFill(editor, b.BoardID, sess, visible)
			require.NoError(t, err)
			assert.Equal(t, 4, n)
			assert.False(t, sess.Active())

			for i, task := range visible {
				got, err := f.svc.GetTask(owner, task.TaskID)
				require.NoError(t, err)
				if i >= 2 && i <= 5 {
					assert.Equal(t, done, got.Value(status.PropertyID).OptionID(), "index %d", i)
				} else {
					assert.True(t, got.Value(status.PropertyID).IsNone(), "index %d", i)
				}
			}
		})
	}
}

func TestFillRespectsEditScope(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	status := propertyNamed(t, b, "Status")
	done := optionLabeled(t, status, "Done")
	_, err := f.svc.AddMember(owner, b.BoardID, "re", types.RoleRestrictedEditor, nil)
	require.NoError(t, err)
	restricted := types.Actor{UserID: "re"}
	createTasks(t, f, restricted, b.BoardID, "mine")
	createTasks(t, f, owner, b.BoardID, "theirs")

	visible, err := f.svc.ListTasks(restricted, b.BoardID)
	require.NoError(t, err)
	require.Len(t, visible, 2)

	sess, err := f.svc.StartFill(restricted, b.BoardID, status.PropertyID, done, 0)
	require.NoError(t, err)
	require.NoError(t, sess.Extend(1))
	_, err = f.svc.CommitFill(restricted, b.BoardID, sess, visible)
	assert.ErrorIs(t, err, types.ErrForbidden)
	assert.True(t, sess.Active(), "the session survives a failed commit")

	got, err := f.svc.GetTask(owner, visible[0].TaskID)
	require.NoError(t, err)
	assert.True(t, got.Value(status.PropertyID).IsNone(), "nothing written")

	_, err = f.svc.StartFill(viewer, b.BoardID, status.PropertyID, done, 0)
	assert.ErrorIs(t, err, types.ErrForbidden)
	_, err = f.svc.StartFill(owner, b.BoardID, status.PropertyID, "nope", 0)
	assert.ErrorIs(t, err, types.ErrInvalidValue)
}
