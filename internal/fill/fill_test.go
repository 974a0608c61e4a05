package fill

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func statusIndex() *schema.Index {
	return schema.NewIndex([]types.Property{
		{PropertyID: "status", Name: "Status", Type: types.PropertyStatus, Options: []types.Option{
			{OptionID: "todo", Label: "Todo"},
			{OptionID: "done", Label: "Done"},
		}},
		{PropertyID: "points", Name: "Points", Type: types.PropertyNumber, Order: 1},
	})
}

func visible(n int) []*types.Task {
	out := make([]*types.Task, n)
	for i := range out {
		out[i] = &types.Task{TaskID: fmt.Sprintf("t%d", i), Order: float64(n - i), Properties: map[string]types.Value{}}
	}
	return out
}

func changedIDs(changes []Change) []string {
	var out []string
	for _, c := range changes {
		out = append(out, c.TaskID)
	}
	return out
}

func TestFillRangeIgnoresDirection(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
	}{
		{"downward", 2, 5},
		{"upward", 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Session
			require.NoError(t, s.Start(statusIndex(), "status", "done", tt.start))
			require.NoError(t, s.Extend(tt.end))

			lo, hi := s.Range()
			assert.Equal(t, 2, lo)
			assert.Equal(t, 5, hi)

			changes, err := s.Plan(visible(8))
			require.NoError(t, err)
			assert.Equal(t, []string{"t2", "t3", "t4", "t5"}, changedIDs(changes))
			for _, c := range changes {
				assert.Equal(t, "done", c.Value.OptionID())
				assert.Equal(t, "status", c.PropertyID)
			}
		})
	}
}

func TestFillSkipsEqualValues(t *testing.T) {
	tasks := visible(3)
	tasks[1].SetValue("points", types.NumberValue(3))

	var s Session
	require.NoError(t, s.Start(statusIndex(), "points", 3, 0))
	require.NoError(t, s.Extend(2))
	changes, err := s.Plan(tasks)
	require.NoError(t, err)
	assert.Equal(t, []string{"t0", "t2"}, changedIDs(changes))
}

func TestFillClampsToVisible(t *testing.T) {
	var s Session
	require.NoError(t, s.Start(statusIndex(), "status", "todo", 1))
	require.NoError(t, s.Extend(10))
	changes, err := s.Plan(visible(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, changedIDs(changes))
}

func TestFillStartErrors(t *testing.T) {
	tests := []struct {
		name    string
		prop    string
		value   any
		start   int
		wantErr error
	}{
		{"unknown property", "nope", "x", 0, types.ErrPropertyNotFound},
		{"unknown option", "status", "archived", 0, types.ErrInvalidValue},
		{"negative index", "status", "done", -1, types.ErrInvalidIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Session
			err := s.Start(statusIndex(), tt.prop, tt.value, tt.start)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, s.Active())
		})
	}
}

func TestFillWithoutStart(t *testing.T) {
	var s Session
	assert.ErrorIs(t, s.Extend(1), ErrNoFill)
	_, err := s.Plan(visible(2))
	assert.ErrorIs(t, err, ErrNoFill)
	assert.False(t, s.Contains(0))
}

func TestFillCommit(t *testing.T) {
	var s Session
	require.NoError(t, s.Start(statusIndex(), "status", "done", 0))
	require.NoError(t, s.Extend(1))

	boom := errors.New("store down")
	err := s.Commit(visible(2), func([]Change) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, s.Active(), "failed commit keeps the session")

	var applied []Change
	require.NoError(t, s.Commit(visible(2), func(c []Change) error {
		applied = c
		return nil
	}))
	assert.Equal(t, []string{"t0", "t1"}, changedIDs(applied))
	assert.False(t, s.Active())
}
