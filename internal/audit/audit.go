// Package audit records who changed what. The sink is fire-and-forget:
// recording never fails the operation that triggered it.
package audit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sink receives audit and activity events.
type Sink interface {
	RecordAudit(action, entityType, entityID, actorID string, details map[string]any)
	RecordActivity(boardID, activityType, actorID, description string, metadata map[string]any)
}

// Audit actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entity types.
const (
	EntityBoard      = "board"
	EntityProperty   = "property"
	EntityTask       = "task"
	EntityView       = "view"
	EntityMember     = "member"
	EntityInvitation = "invitation"
)

// Logger writes every event as one zerolog line at info level.
type Logger struct {
	log zerolog.Logger
}

// NewLogger returns a sink writing to log.
func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log.With().Str("component", "audit").Logger()}
}

func (l *Logger) RecordAudit(action, entityType, entityID, actorID string, details map[string]any) {
	l.log.Info().
		Str("event", "audit").
		Str("action", action).
		Str("entity_type", entityType).
		Str("entity_id", entityID).
		Str("actor_id", actorID).
		Fields(details).
		Msg(action + " " + entityType)
}

func (l *Logger) RecordActivity(boardID, activityType, actorID, description string, metadata map[string]any) {
	l.log.Info().
		Str("event", "activity").
		Str("board_id", boardID).
		Str("activity_type", activityType).
		Str("actor_id", actorID).
		Fields(metadata).
		Msg(description)
}

// Nop discards every event.
type Nop struct{}

func (Nop) RecordAudit(string, string, string, string, map[string]any)    {}
func (Nop) RecordActivity(string, string, string, string, map[string]any) {}

// Entry is one event kept by Memory.
type Entry struct {
	Kind        string // "audit" or "activity"
	Action      string
	EntityType  string
	EntityID    string
	BoardID     string
	Type        string
	ActorID     string
	Description string
	Data        map[string]any
	At          time.Time
}

// Memory keeps events in memory. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *Memory) RecordAudit(action, entityType, entityID, actorID string, details map[string]any) {
	m.add(Entry{Kind: "audit", Action: action, EntityType: entityType, EntityID: entityID, ActorID: actorID, Data: details})
}

func (m *Memory) RecordActivity(boardID, activityType, actorID, description string, metadata map[string]any) {
	m.add(Entry{Kind: "activity", BoardID: boardID, Type: activityType, ActorID: actorID, Description: description, Data: metadata})
}

func (m *Memory) add(e Entry) {
	e.At = time.Now().UTC()
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
}

// Entries returns a copy of the recorded events, oldest first.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Multi fans events out to several sinks.
type Multi []Sink

func (ms Multi) RecordAudit(action, entityType, entityID, actorID string, details map[string]any) {
	for _, s := range ms {
		s.RecordAudit(action, entityType, entityID, actorID, details)
	}
}

func (ms Multi) RecordActivity(boardID, activityType, actorID, description string, metadata map[string]any) {
	for _, s := range ms {
		s.RecordActivity(boardID, activityType, actorID, description, metadata)
	}
}
