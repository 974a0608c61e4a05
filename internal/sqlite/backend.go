// Package sqlite implements the SQLite storage backend for taskboard.
// SQLite is the query engine; one JSONL file per table is the source of
// truth. Files are loaded on Attach and rewritten atomically after every
// committed write.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

const dbFile = "taskboard.db"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// entity is the per-table storage logic. Every method works on the querier
// it is given so it can run inside a Commit transaction.
type entity interface {
	get(q querier, id string) (any, error)
	// set stores data and returns its ID. It fills generated IDs and
	// timestamps into the struct.
	set(q querier, id string, data any, now time.Time) (string, error)
	// delete removes the entity and reports every table the removal touched.
	delete(q querier, id string) ([]string, error)
	fetch(q querier, filter types.Filter) ([]any, error)
}

var entities = map[string]entity{
	types.TableBoards:      boardsEntity{},
	types.TableViews:       viewsEntity{},
	types.TableTasks:       tasksEntity{},
	types.TableMembers:     membersEntity{},
	types.TableInvitations: invitationsEntity{},
}

// Backend implements the Store interface using SQLite as the query engine
// and JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	tables   map[string]*table
	now      func() time.Time
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		tables: make(map[string]*table),
		now:    time.Now,
	}
}

// DataDir returns the directory the backend is attached to, or "" when
// detached.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return ""
	}
	return b.config.DataDir
}

// GetTable returns a Table interface for the specified table name.
// Returns ErrTableNotFound if the table name is not recognized.
// Returns ErrStoreDetached if the backend is not attached.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	t, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return t, nil
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, builds a fresh SQLite database and
// loads every JSONL file into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// The database is a cache of the JSONL files and is rebuilt each time.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	// Commit holds the only writer; one connection keeps a transaction and
	// its reads on the same connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}
	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	config.DataDir = dataDir
	b.db = db
	b.config = config
	b.attached = true
	for _, name := range types.StandardTableNames {
		b.tables[name] = &table{name: name, backend: b, entity: entities[name]}
	}
	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrStoreDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.tables = make(map[string]*table)
	return nil
}

// Commit applies every write in one SQLite transaction and then rewrites
// the JSONL file of each table the writes touched. Nothing is stored when
// any write fails.
func (b *Backend) Commit(writes []types.Write) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	_, err := b.commitLocked(writes)
	return err
}

// commitLocked runs writes in a transaction and returns the ID of each
// write. The caller must hold b.mu for writing.
func (b *Backend) commitLocked(writes []types.Write) ([]string, error) {
	if len(writes) == 0 {
		return nil, nil
	}

	tx, err := b.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning commit: %w", err)
	}
	defer tx.Rollback()

	now := b.now().UTC()
	ids := make([]string, len(writes))
	touched := make(map[string]bool)
	for i, w := range writes {
		ent, ok := entities[w.Table]
		if !ok {
			return nil, fmt.Errorf("write %d: %w: %s", i, types.ErrTableNotFound, w.Table)
		}
		touched[w.Table] = true
		if w.Delete {
			if w.ID == "" {
				return nil, fmt.Errorf("delete from %s: %w", w.Table, types.ErrInvalidID)
			}
			cascaded, err := ent.delete(tx, w.ID)
			if err != nil {
				return nil, fmt.Errorf("delete %s %s: %w", w.Table, w.ID, err)
			}
			for _, name := range cascaded {
				touched[name] = true
			}
			ids[i] = w.ID
			continue
		}
		id, err := ent.set(tx, w.ID, w.Data, now)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", w.Table, err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}

	for _, spec := range tableSpecs {
		if !touched[spec.name] {
			continue
		}
		if err := persistTable(b.db, b.config.DataDir, spec); err != nil {
			return nil, fmt.Errorf("persisting %s: %w", spec.name, err)
		}
	}
	return ids, nil
}

// newUUID generates a UUID v7 for entity IDs, falling back to v4.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
