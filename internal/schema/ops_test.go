package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func sequentialIDs(t *testing.T) {
	t.Helper()
	n := 0
	orig := newID
	newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	t.Cleanup(func() { newID = orig })
}

func boardWith(names ...string) *types.Board {
	b := &types.Board{BoardID: "b1"}
	for i, n := range names {
		b.Properties = append(b.Properties, types.Property{PropertyID: n, Name: n, Type: types.PropertyText, Order: i})
	}
	return b
}

func ids(b *types.Board) []string {
	var out []string
	for _, p := range NewIndex(b.Properties).Properties() {
		out = append(out, p.PropertyID)
	}
	return out
}

func TestAddProperty(t *testing.T) {
	sequentialIDs(t)

	tests := []struct {
		name    string
		spec    PropertySpec
		wantErr error
	}{
		{"text", PropertySpec{Name: "Notes", Type: types.PropertyText}, nil},
		{"select with options", PropertySpec{Name: "Status", Type: types.PropertyStatus, Options: []OptionSpec{{Label: "Todo"}, {Label: "Done", Color: "green"}}}, nil},
		{"empty name", PropertySpec{Name: "  ", Type: types.PropertyText}, types.ErrInvalidName},
		{"unknown type", PropertySpec{Name: "X", Type: "formula"}, types.ErrInvalidPropertyType},
		{"options on text", PropertySpec{Name: "X", Type: types.PropertyText, Options: []OptionSpec{{Label: "a"}}}, types.ErrInvalidPropertyType},
		{"blank option label", PropertySpec{Name: "X", Type: types.PropertySelect, Options: []OptionSpec{{Label: ""}}}, types.ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := boardWith("a", "b")
			p, err := AddProperty(b, tt.spec)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, b.Properties, 2, "failed add leaves the schema alone")
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, p.PropertyID)
			assert.Equal(t, 2, p.Order)
			assert.Equal(t, DefaultWidth, p.Width)
			assert.Len(t, p.Options, len(tt.spec.Options))
		})
	}
}

func TestReorderPropertiesIsPermutation(t *testing.T) {
	b := boardWith("a", "b", "c", "d")

	require.NoError(t, ReorderProperties(b, 0, 2))
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(b))

	require.NoError(t, ReorderProperties(b, 2, 0))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(b))

	for i, p := range b.Properties {
		assert.Equal(t, i, p.Order)
	}
}

func TestReorderPropertiesOutOfRange(t *testing.T) {
	b := boardWith("a", "b")
	assert.ErrorIs(t, ReorderProperties(b, 0, 2), types.ErrInvalidIndex)
	assert.ErrorIs(t, ReorderProperties(b, -1, 0), types.ErrInvalidIndex)
	assert.Equal(t, []string{"a", "b"}, ids(b))
}

func TestRemoveProperty(t *testing.T) {
	b := boardWith("a", "b", "c")
	require.NoError(t, RemoveProperty(b, "b"))
	assert.Equal(t, []string{"a", "c"}, ids(b))
	assert.Equal(t, 1, b.Properties[1].Order)
	assert.ErrorIs(t, RemoveProperty(b, "b"), types.ErrPropertyNotFound)
	assert.True(t, types.IsNotFound(RemoveProperty(b, "zzz")))
}

func TestRenameAndResizeKeepID(t *testing.T) {
	b := boardWith("a")
	require.NoError(t, RenameProperty(b, "a", "Alpha"))
	require.NoError(t, ResizeProperty(b, "a", 320))
	assert.Equal(t, "a", b.Properties[0].PropertyID)
	assert.Equal(t, "Alpha", b.Properties[0].Name)
	assert.Equal(t, 320, b.Properties[0].Width)

	assert.ErrorIs(t, RenameProperty(b, "a", ""), types.ErrInvalidName)
	assert.ErrorIs(t, ResizeProperty(b, "a", 0), types.ErrInvalidData)
	assert.ErrorIs(t, RenameProperty(b, "zzz", "x"), types.ErrPropertyNotFound)
	require.NoError(t, SetRequired(b, "a", true))
	assert.True(t, b.Properties[0].Required)
}

func TestOptions(t *testing.T) {
	sequentialIDs(t)
	b := &types.Board{}
	p, err := AddProperty(b, PropertySpec{Name: "Status", Type: types.PropertySelect})
	require.NoError(t, err)
	pid := p.PropertyID

	first, err := AddOption(b, pid, OptionSpec{Label: "Todo", Color: "gray"})
	require.NoError(t, err)
	second, err := AddOption(b, pid, OptionSpec{Label: "Todo", Color: "blue"})
	require.NoError(t, err)
	assert.NotEqual(t, first.OptionID, second.OptionID, "labels may repeat, ids may not")
	firstID, secondID := first.OptionID, second.OptionID

	label := "Doing"
	require.NoError(t, UpdateOption(b, pid, secondID, OptionPatch{Label: &label}))
	opt, _ := b.Properties[0].Option(secondID)
	assert.Equal(t, "Doing", opt.Label)
	assert.Equal(t, "blue", opt.Color)

	require.NoError(t, ReorderOptions(b, pid, 1, 0))
	assert.Equal(t, secondID, b.Properties[0].Options[0].OptionID)

	require.NoError(t, RemoveOption(b, pid, firstID))
	assert.Len(t, b.Properties[0].Options, 1)
	assert.ErrorIs(t, RemoveOption(b, pid, firstID), types.ErrOptionNotFound)
	assert.ErrorIs(t, UpdateOption(b, pid, "nope", OptionPatch{}), types.ErrOptionNotFound)

	text, err := AddProperty(b, PropertySpec{Name: "Notes", Type: types.PropertyText})
	require.NoError(t, err)
	_, err = AddOption(b, text.PropertyID, OptionSpec{Label: "x"})
	assert.ErrorIs(t, err, types.ErrInvalidPropertyType)
}
