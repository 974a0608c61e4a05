package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/internal/query"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func TestCreateView(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	due := propertyNamed(t, b, "Due")
	priority := propertyNamed(t, b, "Priority")
	points, err := f.svc.AddProperty(owner, b.BoardID, schemaProperty("Points", types.PropertyNumber))
	require.NoError(t, err)

	tests := []struct {
		name    string
		actor   types.Actor
		spec    ViewSpec
		wantErr error
	}{
		{"editor cannot", editor, ViewSpec{Name: "V", Type: types.ViewTable}, types.ErrForbidden},
		{"blank name", owner, ViewSpec{Name: " ", Type: types.ViewTable}, types.ErrInvalidName},
		{"bad type", owner, ViewSpec{Name: "V", Type: "gantt"}, types.ErrInvalidView},
		{"kanban without group", owner, ViewSpec{Name: "V", Type: types.ViewKanban}, types.ErrInvalidView},
		{"group by date", owner, ViewSpec{Name: "V", Type: types.ViewKanban, Config: types.ViewConfig{GroupBy: due.PropertyID}}, types.ErrNotGroupable},
		{"unknown visible", owner, ViewSpec{Name: "V", Type: types.ViewTable, Config: types.ViewConfig{VisibleProperties: []string{"nope"}}}, types.ErrPropertyNotFound},
		{"sum of select", owner, ViewSpec{Name: "V", Type: types.ViewTable, Config: types.ViewConfig{Aggregations: []types.Aggregation{{PropertyID: priority.PropertyID, Type: types.AggSum}}}}, types.ErrInvalidAggregation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateView(tt.actor, b.BoardID, tt.spec)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	v, err := f.svc.CreateView(owner, b.BoardID, ViewSpec{Name: "Estimates", Type: types.ViewTable, Config: types.ViewConfig{
		VisibleProperties: []string{points.PropertyID, priority.PropertyID},
		Aggregations:      []types.Aggregation{{PropertyID: points.PropertyID, Type: types.AggSum}},
	}})
	require.NoError(t, err)
	assert.False(t, v.IsDefault, "the board already has a default")

	got, err := f.svc.GetBoard(owner, b.BoardID)
	require.NoError(t, err)
	assert.Len(t, got.Views, 3)
}

func TestUpdateViewConfig(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	kanban := viewNamed(t, b, "Board")
	priority := propertyNamed(t, b, "Priority")
	due := propertyNamed(t, b, "Due")

	v, err := f.svc.UpdateViewConfig(owner, kanban.ViewID, types.ViewConfig{GroupBy: priority.PropertyID})
	require.NoError(t, err)
	assert.Equal(t, priority.PropertyID, v.Config.GroupBy)

	_, err = f.svc.UpdateViewConfig(owner, kanban.ViewID, types.ViewConfig{})
	assert.ErrorIs(t, err, types.ErrInvalidView)
	_, err = f.svc.UpdateViewConfig(owner, kanban.ViewID, types.ViewConfig{GroupBy: due.PropertyID})
	assert.ErrorIs(t, err, types.ErrNotGroupable)
	_, err = f.svc.UpdateViewConfig(viewer, kanban.ViewID, types.ViewConfig{GroupBy: priority.PropertyID})
	assert.ErrorIs(t, err, types.ErrForbidden)
	_, err = f.svc.UpdateViewConfig(owner, "missing", types.ViewConfig{})
	assert.True(t, types.IsNotFound(err))
}

func TestDefaultViews(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	table := viewNamed(t, b, "All tasks")
	kanban := viewNamed(t, b, "Board")

	defaults := func() []string {
		got, err := f.svc.GetBoard(owner, b.BoardID)
		require.NoError(t, err)
		var out []string
		for _, v := range got.Views {
			if v.IsDefault {
				out = append(out, v.Name)
			}
		}
		return out
	}

	require.NoError(t, f.svc.SetDefaultView(owner, kanban.ViewID))
	assert.Equal(t, []string{"Board"}, defaults())

	require.NoError(t, f.svc.DeleteView(owner, kanban.ViewID))
	assert.Equal(t, []string{"All tasks"}, defaults(), "deleting the default promotes another view")

	assert.ErrorIs(t, f.svc.DeleteView(editor, table.ViewID), types.ErrForbidden)
}

func TestRemovePropertyPrunesViews(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	status := propertyNamed(t, b, "Status")
	done := optionLabeled(t, status, "Done")
	priority := propertyNamed(t, b, "Priority")
	table := viewNamed(t, b, "All tasks")

	_, err := f.svc.UpdateViewConfig(owner, table.ViewID, types.ViewConfig{
		VisibleProperties: []string{status.PropertyID, priority.PropertyID},
		Aggregations:      []types.Aggregation{{PropertyID: status.PropertyID, Type: types.AggCountNotEmpty}},
	})
	require.NoError(t, err)
	task, err := f.svc.CreateTask(owner, b.BoardID, TaskSpec{Title: "t", Values: map[string]any{status.PropertyID: done}})
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveProperty(owner, b.BoardID, status.PropertyID))

	got, err := f.svc.GetBoard(owner, b.BoardID)
	require.NoError(t, err)
	_, ok := got.Property(status.PropertyID)
	assert.False(t, ok)
	board := viewNamed(t, got, "Board")
	assert.Empty(t, board.Config.GroupBy)
	assert.Equal(t, types.ViewTable, board.Type, "kanban without a group-by falls back to table")
	_, err = f.svc.ApplyView(owner, board.ViewID, query.Toolbar{})
	assert.NoError(t, err)
	_, err = f.svc.UpdateViewConfig(owner, board.ViewID, types.ViewConfig{})
	assert.NoError(t, err, "the fallen-back view stays editable")
	cfg := viewNamed(t, got, "All tasks").Config
	assert.Equal(t, []string{priority.PropertyID}, cfg.VisibleProperties)
	assert.Empty(t, cfg.Aggregations)

	kept, err := f.svc.GetTask(owner, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, types.KindRaw, kept.Value(status.PropertyID).Kind(), "orphaned values are kept")
}

func TestSchemaEditsNeedBoardEdit(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	status := propertyNamed(t, b, "Status")

	_, err := f.svc.AddProperty(editor, b.BoardID, schemaProperty("X", types.PropertyText))
	assert.ErrorIs(t, err, types.ErrForbidden)
	assert.ErrorIs(t, f.svc.RenameProperty(editor, b.BoardID, status.PropertyID, "State"), types.ErrForbidden)

	require.NoError(t, f.svc.RenameProperty(owner, b.BoardID, status.PropertyID, "State"))
	require.NoError(t, f.svc.ResizeProperty(owner, b.BoardID, status.PropertyID, 320))
	require.NoError(t, f.svc.ReorderProperties(owner, b.BoardID, 0, 2))
	require.NoError(t, f.svc.ReorderOptions(owner, b.BoardID, status.PropertyID, 2, 0))
	label := "Shipped"
	require.NoError(t, f.svc.UpdateOption(owner, b.BoardID, status.PropertyID, status.Options[2].OptionID, schemaOptionPatch(&label, nil)))
	added, err := f.svc.AddOption(owner, b.BoardID, status.PropertyID, schemaOption("Blocked", "red"))
	require.NoError(t, err)

	got, err := f.svc.GetBoard(owner, b.BoardID)
	require.NoError(t, err)
	p, ok := got.Property(status.PropertyID)
	require.True(t, ok)
	assert.Equal(t, "State", p.Name)
	assert.Equal(t, 320, p.Width)
	assert.Equal(t, 2, p.Order)
	require.Len(t, p.Options, 4)
	assert.Equal(t, "Shipped", p.Options[0].Label)
	assert.Equal(t, added.OptionID, p.Options[3].OptionID)

	require.NoError(t, f.svc.RemoveOption(owner, b.BoardID, status.PropertyID, added.OptionID))
	assert.ErrorIs(t, f.svc.RemoveOption(owner, b.BoardID, status.PropertyID, added.OptionID), types.ErrOptionNotFound)
	assert.ErrorIs(t, f.svc.ResizeProperty(owner, b.BoardID, status.PropertyID, 0), types.ErrInvalidData)
	assert.ErrorIs(t, f.svc.ReorderProperties(owner, b.BoardID, 0, 9), types.ErrInvalidIndex)

	var activity int
	for _, e := range f.log.Entries() {
		if e.Kind == "activity" && e.Type == ActivitySchemaChanged {
			activity++
		}
	}
	assert.Equal(t, 7, activity)
}

func TestApplyView(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	assignee := propertyNamed(t, b, "Assignee")
	points, err := f.svc.AddProperty(owner, b.BoardID, schemaProperty("Points", types.PropertyNumber))
	require.NoError(t, err)
	view, err := f.svc.CreateView(owner, b.BoardID, ViewSpec{Name: "People", Type: types.ViewKanban, Config: types.ViewConfig{
		GroupBy:      assignee.PropertyID,
		Aggregations: []types.Aggregation{{PropertyID: points.PropertyID, Type: types.AggSum}},
	}})
	require.NoError(t, err)

	for _, spec := range []TaskSpec{
		{Title: "Hello World", Values: map[string]any{assignee.PropertyID: viewer.UserID, points.PropertyID: 10.0}},
		{Title: "Goodbye", Values: map[string]any{assignee.PropertyID: "outsider", points.PropertyID: 5.0}},
		{Title: "Nobody's", Values: map[string]any{points.PropertyID: 1.0}},
	} {
		_, err := f.svc.CreateTask(owner, b.BoardID, spec)
		require.NoError(t, err)
	}

	res, err := f.svc.ApplyView(viewer, view.ViewID, query.Toolbar{})
	require.NoError(t, err)
	require.NotNil(t, res.Aggregates[points.PropertyID].Value)
	assert.Equal(t, 16.0, *res.Aggregates[points.PropertyID].Value)

	var keys []string
	for _, g := range res.Groups {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{owner.UserID, editor.UserID, viewer.UserID, "outsider", ""}, keys,
		"owner first, then members, then unknown users, then no value")

	res, err = f.svc.ApplyView(viewer, view.ViewID, query.Toolbar{SearchQuery: "world"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello World"}, titles(res.Tasks))

	_, err = f.svc.ApplyView(viewer, view.ViewID, query.Toolbar{Filters: []query.Filter{{PropertyID: points.PropertyID, Operator: types.OpContains, Value: "1"}}})
	assert.ErrorIs(t, err, types.ErrInvalidOperator)
	_, err = f.svc.ApplyView(stranger, view.ViewID, query.Toolbar{})
	assert.ErrorIs(t, err, types.ErrForbidden)
}

func TestApplyViewAssignedScope(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	assignee := propertyNamed(t, b, "Assignee")
	_, err := f.svc.AddMember(owner, b.BoardID, "rv", types.RoleRestrictedViewer, nil)
	require.NoError(t, err)
	restricted := types.Actor{UserID: "rv"}

	_, err = f.svc.CreateTask(owner, b.BoardID, TaskSpec{Title: "theirs"})
	require.NoError(t, err)
	mine, err := f.svc.CreateTask(owner, b.BoardID, TaskSpec{Title: "mine", Values: map[string]any{assignee.PropertyID: "rv"}})
	require.NoError(t, err)

	res, err := f.svc.ApplyView(restricted, viewNamed(t, b, "All tasks").ViewID, query.Toolbar{})
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, titles(res.Tasks))

	tasks, err := f.svc.ListTasks(restricted, b.BoardID)
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, titles(tasks))

	_, err = f.svc.GetTask(restricted, mine.TaskID)
	assert.NoError(t, err)
}
