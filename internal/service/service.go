// Package service is the engine facade used by the CLI and any API layer.
// Every mutating operation resolves the actor's access on the board first,
// validates its input completely, stores the result in one atomic commit,
// and only then reports audit and activity events.
package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/taskboard/internal/access"
	"github.com/mesh-intelligence/taskboard/internal/audit"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Options configures a Service. Zero fields take defaults.
type Options struct {
	// AdminRole is the global role that overrides board membership.
	AdminRole string
	// InvitationTTL is how long a new invitation stays pending.
	InvitationTTL time.Duration
	Audit         audit.Sink
	Now           func() time.Time
}

// Service runs board operations against an attached Store.
type Service struct {
	store    types.Store
	resolver *access.Resolver
	audit    audit.Sink
	ttl      time.Duration
	now      func() time.Time
}

// New returns a Service over store, which must already be attached.
func New(store types.Store, opts Options) *Service {
	s := &Service{
		store: store,
		audit: opts.Audit,
		ttl:   opts.InvitationTTL,
		now:   opts.Now,
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.ttl <= 0 {
		s.ttl = time.Duration(types.DefaultInvitationTTLHours) * time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.resolver = access.NewResolver(storeLookup{store: store}, opts.AdminRole)
	return s
}

// ResolveAccess computes actor's capabilities on a board. The result is
// computed from the stored rows on every call.
func (s *Service) ResolveAccess(actor types.Actor, boardID string) (types.AccessResult, error) {
	return s.resolver.Resolve(actor, boardID)
}

// storeLookup reads boards and members for the access resolver.
type storeLookup struct {
	store types.Store
}

func (l storeLookup) Board(boardID string) (*types.Board, error) {
	return loadBoard(l.store, boardID)
}

func (l storeLookup) Member(boardID, userID string) (*types.BoardMember, error) {
	members, err := fetch[*types.BoardMember](l.store, types.TableMembers, types.Filter{
		"board_id": boardID,
		"user_id":  userID,
	})
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, types.ErrMemberNotFound
	}
	return members[0], nil
}

func loadBoard(store types.Store, boardID string) (*types.Board, error) {
	b, err := get[*types.Board](store, types.TableBoards, boardID)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}
	return b, nil
}

// get reads one entity and asserts its type.
func get[T any](store types.Store, table, id string) (T, error) {
	var zero T
	tbl, err := store.GetTable(table)
	if err != nil {
		return zero, err
	}
	e, err := tbl.Get(id)
	if err != nil {
		return zero, err
	}
	v, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", table, id, types.ErrInvalidData)
	}
	return v, nil
}

// fetch reads every entity matching filter and asserts its type.
func fetch[T any](store types.Store, table string, filter types.Filter) ([]T, error) {
	tbl, err := store.GetTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Fetch(filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, ok := r.(T)
		if !ok {
			return nil, fmt.Errorf("%s: %w", table, types.ErrInvalidData)
		}
		out = append(out, v)
	}
	return out, nil
}

// authorize loads the board and resolves the actor's access to it.
func (s *Service) authorize(actor types.Actor, boardID string) (*types.Board, types.AccessResult, error) {
	if boardID == "" {
		return nil, types.AccessResult{}, types.ErrInvalidID
	}
	b, err := loadBoard(s.store, boardID)
	if err != nil {
		return nil, types.AccessResult{}, err
	}
	res, err := s.resolver.ResolveBoard(actor, b)
	if err != nil {
		return nil, types.AccessResult{}, err
	}
	return b, res, nil
}

// event is one audited change.
type event struct {
	action      string
	entityType  string
	entityID    string
	boardID     string
	activity    string
	description string
	details     map[string]any
}

func (s *Service) record(actor types.Actor, e event) {
	details := e.details
	if details == nil {
		details = map[string]any{}
	}
	if e.boardID != "" {
		details["board_id"] = e.boardID
	}
	s.audit.RecordAudit(e.action, e.entityType, e.entityID, actor.UserID, details)
	if e.boardID != "" && e.activity != "" {
		s.audit.RecordActivity(e.boardID, e.activity, actor.UserID, e.description, e.details)
	}
}

// newID generates a UUID v7, falling back to v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
