package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// membersEntity stores board memberships. (board_id, user_id) is unique.
type membersEntity struct{}

const memberColumns = "member_id, board_id, user_id, role, permissions, added_by, added_at"

func (membersEntity) get(q querier, id string) (any, error) {
	return scanMember(q.QueryRow("SELECT "+memberColumns+" FROM members WHERE member_id = ?", id))
}

func scanMember(row rowScanner) (*types.BoardMember, error) {
	var m types.BoardMember
	var perms, addedAt string
	err := row.Scan(&m.MemberID, &m.BoardID, &m.UserID, &m.Role, &perms, &m.AddedBy, &addedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning member: %w", err)
	}
	if err := json.Unmarshal([]byte(perms), &m.Permissions); err != nil {
		return nil, fmt.Errorf("parsing member %s permissions: %w", m.MemberID, err)
	}
	if m.AddedAt, err = parseTime(addedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (membersEntity) set(q querier, id string, data any, now time.Time) (string, error) {
	m, ok := data.(*types.BoardMember)
	if !ok {
		return "", types.ErrInvalidData
	}
	if m.UserID == "" {
		return "", fmt.Errorf("%w: member user id is required", types.ErrInvalidData)
	}
	if m.Role == "" {
		return "", types.ErrInvalidRole
	}
	if err := requireBoard(q, m.BoardID); err != nil {
		return "", err
	}

	switch {
	case id != "":
		m.MemberID = id
	case m.MemberID == "":
		m.MemberID = newUUID()
	}
	if m.AddedAt.IsZero() {
		m.AddedAt = now
	}

	var other string
	err := q.QueryRow("SELECT member_id FROM members WHERE board_id = ? AND user_id = ? AND member_id <> ?",
		m.BoardID, m.UserID, m.MemberID).Scan(&other)
	switch {
	case err == nil:
		return "", fmt.Errorf("%w: user %s is already a member of board %s", types.ErrDuplicateID, m.UserID, m.BoardID)
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("checking membership: %w", err)
	}

	if m.Permissions == nil {
		m.Permissions = []string{}
	}
	perms, err := marshalColumn(m.Permissions, "[]")
	if err != nil {
		return "", fmt.Errorf("encoding member permissions: %w", err)
	}

	_, err = q.Exec(`
		INSERT INTO members (member_id, board_id, user_id, role, permissions, added_by, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(member_id) DO UPDATE SET
			role = excluded.role,
			permissions = excluded.permissions`,
		m.MemberID, m.BoardID, m.UserID, m.Role, perms, m.AddedBy, formatTime(m.AddedAt))
	if err != nil {
		return "", fmt.Errorf("upserting member: %w", err)
	}
	return m.MemberID, nil
}

func (membersEntity) delete(q querier, id string) ([]string, error) {
	res, err := q.Exec("DELETE FROM members WHERE member_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("deleting member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, types.ErrMemberNotFound
	}
	return nil, nil
}

// fetch accepts board_id and user_id. Members come back in the order they
// were added.
func (membersEntity) fetch(q querier, filter types.Filter) ([]any, error) {
	where, args, err := whereClause(filter, map[string]string{
		"board_id": "board_id",
		"user_id":  "user_id",
	})
	if err != nil {
		return nil, err
	}
	rows, err := q.Query("SELECT "+memberColumns+" FROM members"+where+" ORDER BY added_at, member_id", args...)
	if err != nil {
		return nil, fmt.Errorf("fetching members: %w", err)
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}
	return out, nil
}
