package types

import "errors"

// Store defines the interface for backend-agnostic storage access.
// Callers attach to a backend, access tables by name, and detach when done.
type Store interface {
	// GetTable returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	GetTable(name string) (Table, error)

	// Commit applies every write in one transaction. Either all writes are
	// stored or none is. Writes with an empty ID create new entities and the
	// generated ID is assigned to the entity struct.
	Commit(writes []Write) error

	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations on tables return ErrStoreDetached.
	Detach() error
}

// Write is one entry of an atomic Store.Commit.
type Write struct {
	Table  string
	ID     string
	Data   any
	Delete bool
}

// SetWrite returns a create-or-update Write.
func SetWrite(table, id string, data any) Write {
	return Write{Table: table, ID: id, Data: data}
}

// DeleteWrite returns a delete Write.
func DeleteWrite(table, id string) Write {
	return Write{Table: table, ID: id, Delete: true}
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrTableNotFound   = errors.New("table not found")
)
