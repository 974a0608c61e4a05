package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/internal/audit"
	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/internal/sqlite"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

var (
	owner    = types.Actor{UserID: "owner", Email: "owner@example.com"}
	editor   = types.Actor{UserID: "ed", Email: "ed@example.com"}
	viewer   = types.Actor{UserID: "vi", Email: "vi@example.com"}
	stranger = types.Actor{UserID: "stranger", Email: "stranger@example.com"}
	admin    = types.Actor{UserID: "root", GlobalRole: "admin"}
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	svc   *Service
	log   *audit.Memory
	clock *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = store.Detach() })

	f := &fixture{log: &audit.Memory{}, clock: &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}}
	f.svc = New(store, Options{Audit: f.log, Now: f.clock.Now, InvitationTTL: 48 * time.Hour})
	return f
}

// board creates a private board owned by owner with the default schema, an
// editor and a viewer.
func (f *fixture) board(t *testing.T) *types.Board {
	t.Helper()
	b, err := f.svc.CreateBoard(owner, BoardSpec{Name: "Launch"})
	require.NoError(t, err)
	_, err = f.svc.AddMember(owner, b.BoardID, editor.UserID, types.RoleEditor, nil)
	require.NoError(t, err)
	_, err = f.svc.AddMember(owner, b.BoardID, viewer.UserID, types.RoleViewer, nil)
	require.NoError(t, err)
	return b
}

func propertyNamed(t *testing.T, b *types.Board, name string) *types.Property {
	t.Helper()
	for i := range b.Properties {
		if b.Properties[i].Name == name {
			return &b.Properties[i]
		}
	}
	t.Fatalf("no property %q", name)
	return nil
}

func optionLabeled(t *testing.T, p *types.Property, label string) string {
	t.Helper()
	for _, o := range p.Options {
		if o.Label == label {
			return o.OptionID
		}
	}
	t.Fatalf("no option %q on %s", label, p.Name)
	return ""
}

func viewNamed(t *testing.T, b *types.Board, name string) *types.View {
	t.Helper()
	for i := range b.Views {
		if b.Views[i].Name == name {
			return &b.Views[i]
		}
	}
	t.Fatalf("no view %q", name)
	return nil
}

func TestCreateBoard(t *testing.T) {
	f := newFixture(t)
	b, err := f.svc.CreateBoard(owner, BoardSpec{Name: "  Launch  "})
	require.NoError(t, err)

	assert.Equal(t, "Launch", b.Name)
	assert.Equal(t, owner.UserID, b.OwnerID)
	assert.Equal(t, types.VisibilityPrivate, b.Visibility)
	require.Len(t, b.Properties, len(defaultProperties))
	assert.Equal(t, types.PropertyStatus, b.Properties[0].Type)

	members, err := f.svc.ListMembers(owner, b.BoardID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, owner.UserID, members[0].UserID)
	assert.Equal(t, types.RoleOwner, members[0].Role)

	got, err := f.svc.GetBoard(owner, b.BoardID)
	require.NoError(t, err)
	require.Len(t, got.Views, 2)
	def, ok := DefaultView(got)
	require.True(t, ok)
	assert.Equal(t, types.ViewTable, def.Type)
	kanban := viewNamed(t, got, "Board")
	assert.Equal(t, propertyNamed(t, got, "Status").PropertyID, kanban.Config.GroupBy)

	entries := f.log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)
	assert.Equal(t, audit.EntityBoard, entries[0].EntityType)
	assert.Equal(t, ActivityBoardCreated, entries[1].Type)
	assert.Equal(t, b.BoardID, entries[1].BoardID)
}

func TestCreateBoardValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name    string
		actor   types.Actor
		spec    BoardSpec
		wantErr error
	}{
		{"no actor", types.Actor{}, BoardSpec{Name: "B"}, types.ErrInvalidID},
		{"blank name", owner, BoardSpec{Name: "   "}, types.ErrInvalidName},
		{"bad visibility", owner, BoardSpec{Name: "B", Visibility: "public"}, types.ErrInvalidVisibility},
		{"bad property", owner, BoardSpec{Name: "B", Properties: []schema.PropertySpec{{Name: "X", Type: "formula"}}}, types.ErrInvalidPropertyType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateBoard(tt.actor, tt.spec)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	boards, err := f.svc.ListBoards(owner)
	require.NoError(t, err)
	assert.Empty(t, boards, "failed creates store nothing")
}

func TestCreateBoardWithoutProperties(t *testing.T) {
	f := newFixture(t)
	b, err := f.svc.CreateBoard(owner, BoardSpec{Name: "Empty", Properties: []schema.PropertySpec{}})
	require.NoError(t, err)
	assert.Empty(t, b.Properties)
	require.Len(t, b.Views, 1, "no status property, no kanban")
	assert.True(t, b.Views[0].IsDefault)
}

func TestBoardVisibility(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)

	_, err := f.svc.GetBoard(stranger, b.BoardID)
	assert.ErrorIs(t, err, types.ErrForbidden)
	assert.True(t, types.IsForbidden(err))

	boards, err := f.svc.ListBoards(stranger)
	require.NoError(t, err)
	assert.Empty(t, boards)

	workspace := types.VisibilityWorkspace
	_, err = f.svc.UpdateBoard(owner, b.BoardID, BoardPatch{Visibility: &workspace})
	require.NoError(t, err)

	_, err = f.svc.GetBoard(stranger, b.BoardID)
	require.NoError(t, err)
	res, err := f.svc.ResolveAccess(stranger, b.BoardID)
	require.NoError(t, err)
	assert.True(t, res.HasAccess)
	assert.Equal(t, types.RoleViewer, res.Role)
	assert.False(t, res.Permissions.CanEditTasks)
	assert.False(t, res.Permissions.CanManageMembers)

	_, err = f.svc.GetBoard(owner, "missing")
	assert.True(t, types.IsNotFound(err))
}

func TestResolveAccessGlobalAdmin(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)

	res, err := f.svc.ResolveAccess(admin, b.BoardID)
	require.NoError(t, err)
	assert.True(t, res.HasAccess)
	assert.Equal(t, types.RoleOwner, res.Role)
	assert.True(t, res.Permissions.CanDeleteBoard)
	assert.True(t, res.Permissions.CanManageMembers)

	require.NoError(t, f.svc.DeleteBoard(admin, b.BoardID))
}

func TestCustomAdminRole(t *testing.T) {
	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = store.Detach() })
	svc := New(store, Options{AdminRole: "superuser"})

	b, err := svc.CreateBoard(owner, BoardSpec{Name: "B"})
	require.NoError(t, err)

	res, err := svc.ResolveAccess(admin, b.BoardID)
	require.NoError(t, err)
	assert.False(t, res.HasAccess, "admin is not the configured admin role")

	res, err = svc.ResolveAccess(types.Actor{UserID: "x", GlobalRole: "superuser"}, b.BoardID)
	require.NoError(t, err)
	assert.True(t, res.HasAccess)
}

func TestUpdateBoard(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)

	name := "Relaunch"
	_, err := f.svc.UpdateBoard(editor, b.BoardID, BoardPatch{Name: &name})
	assert.ErrorIs(t, err, types.ErrForbidden)

	got, err := f.svc.UpdateBoard(owner, b.BoardID, BoardPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Relaunch", got.Name)

	blank := " "
	_, err = f.svc.UpdateBoard(owner, b.BoardID, BoardPatch{Name: &blank})
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestDeleteBoard(t *testing.T) {
	f := newFixture(t)
	b := f.board(t)
	_, err := f.svc.CreateTask(owner, b.BoardID, TaskSpec{Title: "t"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteBoard(editor, b.BoardID), types.ErrForbidden)
	require.NoError(t, f.svc.DeleteBoard(owner, b.BoardID))

	_, err = f.svc.GetBoard(owner, b.BoardID)
	assert.True(t, types.IsNotFound(err))
	tasks, err := fetch[*types.Task](f.svc.store, types.TableTasks, types.Filter{"board_id": b.BoardID})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func schemaProperty(name string, typ types.PropertyType, labels ...string) schema.PropertySpec {
	spec := schema.PropertySpec{Name: name, Type: typ}
	for _, l := range labels {
		spec.Options = append(spec.Options, schema.OptionSpec{Label: l})
	}
	return spec
}

func schemaOption(label, color string) schema.OptionSpec {
	return schema.OptionSpec{Label: label, Color: color}
}

func schemaOptionPatch(label, color *string) schema.OptionPatch {
	return schema.OptionPatch{Label: label, Color: color}
}
