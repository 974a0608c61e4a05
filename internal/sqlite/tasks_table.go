package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// tasksEntity stores task values as a JSON object keyed by property ID.
// On read the values are tagged with the board's current property types;
// values that no longer fit their type stay raw.
type tasksEntity struct{}

const taskColumns = "task_id, board_id, title, ord, properties, created_by, created_at, updated_at"

func (tasksEntity) get(q querier, id string) (any, error) {
	t, err := scanTask(q.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE task_id = ?", id))
	if err != nil {
		return nil, err
	}
	props, err := boardSchema(q, t.BoardID)
	if err != nil {
		return nil, err
	}
	t.Interpret(props)
	return t, nil
}

func scanTask(row rowScanner) (*types.Task, error) {
	var t types.Task
	var props, createdAt, updatedAt string
	err := row.Scan(&t.TaskID, &t.BoardID, &t.Title, &t.Order, &props, &t.CreatedBy, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	if err := json.Unmarshal([]byte(props), &t.Properties); err != nil {
		return nil, fmt.Errorf("parsing task %s properties: %w", t.TaskID, err)
	}
	if t.Properties == nil {
		t.Properties = map[string]types.Value{}
	}
	for k, v := range t.Properties {
		if v.IsNone() {
			delete(t.Properties, k)
		}
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (tasksEntity) set(q querier, id string, data any, now time.Time) (string, error) {
	t, ok := data.(*types.Task)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := requireBoard(q, t.BoardID); err != nil {
		return "", err
	}

	switch {
	case id != "":
		t.TaskID = id
	case t.TaskID == "":
		t.TaskID = newUUID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	props, err := marshalColumn(t.Properties, "{}")
	if err != nil {
		return "", fmt.Errorf("encoding task properties: %w", err)
	}

	_, err = q.Exec(`
		INSERT INTO tasks (task_id, board_id, title, ord, properties, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			title = excluded.title,
			ord = excluded.ord,
			properties = excluded.properties,
			updated_at = excluded.updated_at`,
		t.TaskID, t.BoardID, t.Title, t.Order, props, t.CreatedBy,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return "", fmt.Errorf("upserting task: %w", err)
	}
	return t.TaskID, nil
}

func (tasksEntity) delete(q querier, id string) ([]string, error) {
	res, err := q.Exec("DELETE FROM tasks WHERE task_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("deleting task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, types.ErrNotFound
	}
	return nil, nil
}

// fetch accepts board_id, created_by and task_id. Tasks come back ordered
// by their order field, then creation time.
func (tasksEntity) fetch(q querier, filter types.Filter) ([]any, error) {
	where, args, err := whereClause(filter, map[string]string{
		"board_id":   "board_id",
		"created_by": "created_by",
		"task_id":    "task_id",
	})
	if err != nil {
		return nil, err
	}
	rows, err := q.Query("SELECT "+taskColumns+" FROM tasks"+where+" ORDER BY ord, created_at, task_id", args...)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	rows.Close()

	schemas := make(map[string][]types.Property)
	out := make([]any, len(tasks))
	for i, t := range tasks {
		props, ok := schemas[t.BoardID]
		if !ok {
			if props, err = boardSchema(q, t.BoardID); err != nil {
				return nil, err
			}
			schemas[t.BoardID] = props
		}
		t.Interpret(props)
		out[i] = t
	}
	return out, nil
}
