package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

type viewsEntity struct{}

const viewColumns = "view_id, board_id, name, view_type, is_default, config"

func (viewsEntity) get(q querier, id string) (any, error) {
	return scanView(q.QueryRow("SELECT "+viewColumns+" FROM views WHERE view_id = ?", id))
}

func scanView(row rowScanner) (*types.View, error) {
	var v types.View
	var typ, cfg string
	var isDefault int
	err := row.Scan(&v.ViewID, &v.BoardID, &v.Name, &typ, &isDefault, &cfg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning view: %w", err)
	}
	v.Type = types.ViewType(typ)
	v.IsDefault = isDefault != 0
	if err := json.Unmarshal([]byte(cfg), &v.Config); err != nil {
		return nil, fmt.Errorf("parsing view %s config: %w", v.ViewID, err)
	}
	return &v, nil
}

func (viewsEntity) set(q querier, id string, data any, _ time.Time) (string, error) {
	v, ok := data.(*types.View)
	if !ok {
		return "", types.ErrInvalidData
	}
	if strings.TrimSpace(v.Name) == "" {
		return "", types.ErrInvalidName
	}
	if v.Type != types.ViewTable && v.Type != types.ViewKanban {
		return "", fmt.Errorf("%w: view type %q", types.ErrInvalidView, v.Type)
	}
	if err := requireBoard(q, v.BoardID); err != nil {
		return "", err
	}

	switch {
	case id != "":
		v.ViewID = id
	case v.ViewID == "":
		v.ViewID = newUUID()
	}

	cfg, err := marshalColumn(v.Config, "{}")
	if err != nil {
		return "", fmt.Errorf("encoding view config: %w", err)
	}
	isDefault := 0
	if v.IsDefault {
		isDefault = 1
	}

	_, err = q.Exec(`
		INSERT INTO views (view_id, board_id, name, view_type, is_default, config)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(view_id) DO UPDATE SET
			name = excluded.name,
			view_type = excluded.view_type,
			is_default = excluded.is_default,
			config = excluded.config`,
		v.ViewID, v.BoardID, v.Name, string(v.Type), isDefault, cfg)
	if err != nil {
		return "", fmt.Errorf("upserting view: %w", err)
	}
	return v.ViewID, nil
}

func (viewsEntity) delete(q querier, id string) ([]string, error) {
	res, err := q.Exec("DELETE FROM views WHERE view_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("deleting view: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, types.ErrNotFound
	}
	return nil, nil
}

// fetch accepts board_id. Views come back in creation order.
func (viewsEntity) fetch(q querier, filter types.Filter) ([]any, error) {
	where, args, err := whereClause(filter, map[string]string{"board_id": "board_id"})
	if err != nil {
		return nil, err
	}
	rows, err := q.Query("SELECT "+viewColumns+" FROM views"+where+" ORDER BY rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("fetching views: %w", err)
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating views: %w", err)
	}
	return out, nil
}
