package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// table implements types.Table for one entity type. Reads share the
// backend lock; writes go through the backend's commit path so a single
// Set or Delete is persisted exactly like a batch.
type table struct {
	name    string
	backend *Backend
	entity  entity
}

// Get retrieves an entity by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.backend.attached {
		return nil, types.ErrStoreDetached
	}
	return t.entity.get(t.backend.db, id)
}

// Set creates or updates an entity. If id is empty and the entity carries
// no ID, a UUID v7 is generated.
func (t *table) Set(id string, data any) (string, error) {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	if !t.backend.attached {
		return "", types.ErrStoreDetached
	}
	ids, err := t.backend.commitLocked([]types.Write{types.SetWrite(t.name, id, data)})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// Delete removes an entity by ID, cascading where the entity owns others.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	if !t.backend.attached {
		return types.ErrStoreDetached
	}
	_, err := t.backend.commitLocked([]types.Write{types.DeleteWrite(t.name, id)})
	return err
}

// Fetch returns entities matching the filter. Empty filter matches all.
func (t *table) Fetch(filter types.Filter) ([]any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.backend.attached {
		return nil, types.ErrStoreDetached
	}
	return t.entity.fetch(t.backend.db, filter)
}

// whereClause turns a filter into SQL conditions. columns maps each
// accepted filter key to its column. Values must be strings; a key the
// table does not know is an error rather than a silent full scan.
func whereClause(filter types.Filter, columns map[string]string) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conds []string
	var args []any
	for _, k := range keys {
		col, ok := columns[k]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, k)
		}
		switch v := filter[k].(type) {
		case string:
			conds = append(conds, col+" = ?")
			args = append(args, v)
		case []string:
			if len(v) == 0 {
				conds = append(conds, "0")
				continue
			}
			marks := make([]string, len(v))
			for i, s := range v {
				marks[i] = "?"
				args = append(args, s)
			}
			conds = append(conds, col+" IN ("+strings.Join(marks, ", ")+")")
		default:
			return "", nil, fmt.Errorf("%w: %s must be a string", types.ErrInvalidFilter, k)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// exists reports whether a row with the given key is present.
func exists(q querier, tableName, keyColumn, id string) (bool, error) {
	var one int
	err := q.QueryRow(fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?", tableName, keyColumn), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", tableName, err)
	}
	return true, nil
}

// requireBoard returns ErrNotFound wrapped with the board ID when the board
// does not exist.
func requireBoard(q querier, boardID string) error {
	if boardID == "" {
		return fmt.Errorf("%w: board id is required", types.ErrInvalidData)
	}
	ok, err := exists(q, "boards", "board_id", boardID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("board %s: %w", boardID, types.ErrNotFound)
	}
	return nil
}

// timeLayout is fixed width so that text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

func marshalColumn(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}
