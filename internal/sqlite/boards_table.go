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

// boardsEntity stores a board with its property schema as a JSON column.
// Views live in their own table and are attached on read.
type boardsEntity struct{}

const boardColumns = "board_id, name, owner_id, visibility, properties, created_at, updated_at"

func (boardsEntity) get(q querier, id string) (any, error) {
	row := q.QueryRow("SELECT "+boardColumns+" FROM boards WHERE board_id = ?", id)
	b, err := scanBoard(row)
	if err != nil {
		return nil, err
	}
	if err := attachViews(q, []*types.Board{b}); err != nil {
		return nil, err
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBoard(row rowScanner) (*types.Board, error) {
	var b types.Board
	var vis, props, createdAt, updatedAt string
	err := row.Scan(&b.BoardID, &b.Name, &b.OwnerID, &vis, &props, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning board: %w", err)
	}
	b.Visibility = types.Visibility(vis)
	if err := json.Unmarshal([]byte(props), &b.Properties); err != nil {
		return nil, fmt.Errorf("parsing board %s properties: %w", b.BoardID, err)
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	b.Views = []types.View{}
	return &b, nil
}

func (boardsEntity) set(q querier, id string, data any, now time.Time) (string, error) {
	b, ok := data.(*types.Board)
	if !ok {
		return "", types.ErrInvalidData
	}
	if strings.TrimSpace(b.Name) == "" {
		return "", types.ErrInvalidName
	}
	if b.OwnerID == "" {
		return "", fmt.Errorf("%w: board owner is required", types.ErrInvalidData)
	}
	if b.Visibility == "" {
		b.Visibility = types.VisibilityPrivate
	}
	if !b.Visibility.Valid() {
		return "", fmt.Errorf("%w: %s", types.ErrInvalidVisibility, b.Visibility)
	}

	switch {
	case id != "":
		b.BoardID = id
	case b.BoardID == "":
		b.BoardID = newUUID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	if b.Properties == nil {
		b.Properties = []types.Property{}
	}
	props, err := marshalColumn(b.Properties, "[]")
	if err != nil {
		return "", fmt.Errorf("encoding board properties: %w", err)
	}

	_, err = q.Exec(`
		INSERT INTO boards (board_id, name, owner_id, visibility, properties, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(board_id) DO UPDATE SET
			name = excluded.name,
			owner_id = excluded.owner_id,
			visibility = excluded.visibility,
			properties = excluded.properties,
			updated_at = excluded.updated_at`,
		b.BoardID, b.Name, b.OwnerID, string(b.Visibility), props,
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return "", fmt.Errorf("upserting board: %w", err)
	}
	return b.BoardID, nil
}

// delete removes the board and everything that belongs to it.
func (boardsEntity) delete(q querier, id string) ([]string, error) {
	ok, err := exists(q, "boards", "board_id", id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.ErrNotFound
	}
	owned := []string{types.TableViews, types.TableTasks, types.TableMembers, types.TableInvitations}
	for _, name := range owned {
		if _, err := q.Exec("DELETE FROM "+name+" WHERE board_id = ?", id); err != nil {
			return nil, fmt.Errorf("deleting board %s: %w", name, err)
		}
	}
	if _, err := q.Exec("DELETE FROM boards WHERE board_id = ?", id); err != nil {
		return nil, fmt.Errorf("deleting board: %w", err)
	}
	return owned, nil
}

// fetch accepts owner_id, visibility and board_id (a string or a list).
func (boardsEntity) fetch(q querier, filter types.Filter) ([]any, error) {
	where, args, err := whereClause(filter, map[string]string{
		"owner_id":   "owner_id",
		"visibility": "visibility",
		"board_id":   "board_id",
	})
	if err != nil {
		return nil, err
	}
	rows, err := q.Query("SELECT "+boardColumns+" FROM boards"+where+" ORDER BY created_at, board_id", args...)
	if err != nil {
		return nil, fmt.Errorf("fetching boards: %w", err)
	}
	defer rows.Close()

	var boards []*types.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating boards: %w", err)
	}
	rows.Close()

	if err := attachViews(q, boards); err != nil {
		return nil, err
	}
	out := make([]any, len(boards))
	for i, b := range boards {
		out[i] = b
	}
	return out, nil
}

// attachViews fills Views on each board.
func attachViews(q querier, boards []*types.Board) error {
	for _, b := range boards {
		views, err := viewsEntity{}.fetch(q, types.Filter{"board_id": b.BoardID})
		if err != nil {
			return err
		}
		b.Views = make([]types.View, 0, len(views))
		for _, v := range views {
			b.Views = append(b.Views, *v.(*types.View))
		}
	}
	return nil
}

// boardSchema reads a board's property list without its views.
func boardSchema(q querier, boardID string) ([]types.Property, error) {
	var props string
	err := q.QueryRow("SELECT properties FROM boards WHERE board_id = ?", boardID).Scan(&props)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading board %s schema: %w", boardID, err)
	}
	var out []types.Property
	if err := json.Unmarshal([]byte(props), &out); err != nil {
		return nil, fmt.Errorf("parsing board %s properties: %w", boardID, err)
	}
	return out, nil
}
