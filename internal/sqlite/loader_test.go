package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func setupTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dataDir := t.TempDir()
	db, err := sql.Open("sqlite", filepath.Join(dataDir, dbFile))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	require.NoError(t, initJSONLFiles(dataDir))
	return db, dataDir
}

func TestLoadJSONLUnknownFields(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		jsonl    string
		countSQL string
		wantRows int
		checkSQL string
		checkVal string
	}{
		{
			name:     "boards with unknown fields",
			file:     "boards.jsonl",
			jsonl:    `{"board_id":"b-1","name":"Roadmap","owner_id":"u1","visibility":"private","properties":[{"id":"p1","name":"Notes","type":"text","order":0}],"created_at":"2025-01-15T10:30:00Z","updated_at":"2025-01-15T10:30:00Z","archived":true}` + "\n",
			countSQL: "SELECT COUNT(*) FROM boards",
			wantRows: 1,
			checkSQL: "SELECT properties FROM boards WHERE board_id = 'b-1'",
			checkVal: `[{"id":"p1","name":"Notes","order":0,"type":"text"}]`,
		},
		{
			name:     "tasks with nested unknown fields",
			file:     "tasks.jsonl",
			jsonl:    `{"task_id":"t-1","board_id":"b-1","title":"Hello","ord":3,"properties":{"p1":"x"},"created_by":"u1","created_at":"2025-01-15T10:30:00Z","updated_at":"2025-01-15T10:30:00Z","meta":{"deep":{"level":2}}}` + "\n",
			countSQL: "SELECT COUNT(*) FROM tasks",
			wantRows: 1,
			checkSQL: "SELECT title FROM tasks WHERE task_id = 't-1'",
			checkVal: "Hello",
		},
		{
			name:     "members missing permissions get an empty list",
			file:     "members.jsonl",
			jsonl:    `{"member_id":"m-1","board_id":"b-1","user_id":"u2","role":"editor","added_by":"u1","added_at":"2025-01-15T10:30:00Z"}` + "\n",
			countSQL: "SELECT COUNT(*) FROM members",
			wantRows: 1,
			checkSQL: "SELECT permissions FROM members WHERE member_id = 'm-1'",
			checkVal: "[]",
		},
		{
			name: "records missing required columns are skipped",
			file: "views.jsonl",
			jsonl: `{"view_id":"v-1","board_id":"b-1","name":"All","view_type":"table","is_default":1,"config":{}}
{"view_id":"v-2","board_id":"b-1","view_type":"table","is_default":0,"config":{}}
`,
			countSQL: "SELECT COUNT(*) FROM views",
			wantRows: 1,
			checkSQL: "SELECT name FROM views WHERE view_id = 'v-1'",
			checkVal: "All",
		},
		{
			name: "duplicate member rows keep the first",
			file: "members.jsonl",
			jsonl: `{"member_id":"m-1","board_id":"b-1","user_id":"u2","role":"editor","permissions":[],"added_by":"u1","added_at":"2025-01-15T10:30:00Z"}
{"member_id":"m-2","board_id":"b-1","user_id":"u2","role":"viewer","permissions":[],"added_by":"u1","added_at":"2025-01-15T10:31:00Z"}
`,
			countSQL: "SELECT COUNT(*) FROM members",
			wantRows: 1,
			checkSQL: "SELECT role FROM members WHERE user_id = 'u2'",
			checkVal: "editor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, dataDir := setupTestDB(t)
			require.NoError(t, os.WriteFile(filepath.Join(dataDir, tt.file), []byte(tt.jsonl), 0o644))

			require.NoError(t, loadAllJSONL(db, dataDir))

			var count int
			require.NoError(t, db.QueryRow(tt.countSQL).Scan(&count))
			assert.Equal(t, tt.wantRows, count)

			var val string
			require.NoError(t, db.QueryRow(tt.checkSQL).Scan(&val))
			assert.Equal(t, tt.checkVal, val)
		})
	}
}

func TestLoadJSONLMalformedLines(t *testing.T) {
	db, dataDir := setupTestDB(t)
	jsonl := `{"invitation_id":"i-1","board_id":"b-1","email":"a@b.c","role":"viewer","permissions":[],"invited_by":"u1","status":"pending","expires_at":"2030-01-01T00:00:00Z","created_at":"2025-01-15T10:30:00Z"}
this is not json
{"invitation_id":"i-2","board_id":"b-1","email":"d@e.f","role":"viewer","permissions":[],"invited_by":"u1","status":"declined","expires_at":"2030-01-01T00:00:00Z","created_at":"2025-01-15T10:31:00Z"}
`
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "invitations.jsonl"), []byte(jsonl), 0o644))
	require.NoError(t, loadAllJSONL(db, dataDir))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM invitations").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestAttachLoadsHandWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	boards := `{"board_id":"b-1","name":"Imported","owner_id":"u1","visibility":"workspace","properties":[{"id":"pts","name":"Points","type":"number","order":0}],"created_at":"2025-01-15T10:30:00Z","updated_at":"2025-01-15T10:30:00Z"}` + "\n"
	tasks := `{"task_id":"t-1","board_id":"b-1","title":"Legacy","ord":0,"properties":{"pts":"12"},"created_by":"u1","created_at":"2025-01-15T10:30:00Z","updated_at":"2025-01-15T10:30:00Z"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boards.jsonl"), []byte(boards), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.jsonl"), []byte(tasks), 0o644))

	b := attach(t, dir)
	got, err := mustTable(t, b, types.TableTasks).Get("t-1")
	require.NoError(t, err)
	task := got.(*types.Task)
	assert.Equal(t, types.KindRaw, task.Value("pts").Kind(), "a string in a number column stays raw")
	assert.Equal(t, "12", task.Value("pts").Raw())
}
