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

type invitationsEntity struct{}

const invitationColumns = "invitation_id, board_id, email, role, permissions, invited_by, status, expires_at, created_at"

var invitationStatuses = map[string]bool{
	types.InvitationPending:   true,
	types.InvitationAccepted:  true,
	types.InvitationDeclined:  true,
	types.InvitationCancelled: true,
	types.InvitationExpired:   true,
}

func (invitationsEntity) get(q querier, id string) (any, error) {
	return scanInvitation(q.QueryRow("SELECT "+invitationColumns+" FROM invitations WHERE invitation_id = ?", id))
}

func scanInvitation(row rowScanner) (*types.BoardInvitation, error) {
	var inv types.BoardInvitation
	var perms, expiresAt, createdAt string
	err := row.Scan(&inv.InvitationID, &inv.BoardID, &inv.Email, &inv.Role, &perms,
		&inv.InvitedBy, &inv.Status, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning invitation: %w", err)
	}
	if err := json.Unmarshal([]byte(perms), &inv.Permissions); err != nil {
		return nil, fmt.Errorf("parsing invitation %s permissions: %w", inv.InvitationID, err)
	}
	if inv.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (invitationsEntity) set(q querier, id string, data any, now time.Time) (string, error) {
	inv, ok := data.(*types.BoardInvitation)
	if !ok {
		return "", types.ErrInvalidData
	}
	inv.Email = strings.ToLower(strings.TrimSpace(inv.Email))
	if inv.Email == "" || !strings.Contains(inv.Email, "@") {
		return "", fmt.Errorf("%w: email %q", types.ErrInvalidInvitation, inv.Email)
	}
	if inv.Role == "" {
		return "", types.ErrInvalidRole
	}
	if inv.Status == "" {
		inv.Status = types.InvitationPending
	}
	if !invitationStatuses[inv.Status] {
		return "", fmt.Errorf("%w: status %q", types.ErrInvalidInvitation, inv.Status)
	}
	if err := requireBoard(q, inv.BoardID); err != nil {
		return "", err
	}

	switch {
	case id != "":
		inv.InvitationID = id
	case inv.InvitationID == "":
		inv.InvitationID = newUUID()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	if inv.Permissions == nil {
		inv.Permissions = []string{}
	}
	perms, err := marshalColumn(inv.Permissions, "[]")
	if err != nil {
		return "", fmt.Errorf("encoding invitation permissions: %w", err)
	}

	_, err = q.Exec(`
		INSERT INTO invitations (invitation_id, board_id, email, role, permissions, invited_by, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(invitation_id) DO UPDATE SET
			role = excluded.role,
			permissions = excluded.permissions,
			status = excluded.status,
			expires_at = excluded.expires_at`,
		inv.InvitationID, inv.BoardID, inv.Email, inv.Role, perms, inv.InvitedBy,
		inv.Status, formatTime(inv.ExpiresAt), formatTime(inv.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("upserting invitation: %w", err)
	}
	return inv.InvitationID, nil
}

func (invitationsEntity) delete(q querier, id string) ([]string, error) {
	res, err := q.Exec("DELETE FROM invitations WHERE invitation_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("deleting invitation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, types.ErrNotFound
	}
	return nil, nil
}

// fetch accepts board_id, email and status.
func (invitationsEntity) fetch(q querier, filter types.Filter) ([]any, error) {
	if e, ok := filter["email"].(string); ok {
		filter = cloneFilter(filter)
		filter["email"] = strings.ToLower(strings.TrimSpace(e))
	}
	where, args, err := whereClause(filter, map[string]string{
		"board_id": "board_id",
		"email":    "email",
		"status":   "status",
	})
	if err != nil {
		return nil, err
	}
	rows, err := q.Query("SELECT "+invitationColumns+" FROM invitations"+where+" ORDER BY created_at, invitation_id", args...)
	if err != nil {
		return nil, fmt.Errorf("fetching invitations: %w", err)
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invitations: %w", err)
	}
	return out, nil
}

func cloneFilter(f types.Filter) types.Filter {
	out := make(types.Filter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
