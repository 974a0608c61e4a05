package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// loadAllJSONL reads each JSONL file from dataDir and inserts its records
// into the matching SQLite table. Loading is transactional: all tables load
// or the database stays empty. Malformed lines and records that violate a
// constraint are skipped. Unknown fields are ignored so files written by a
// newer release still load.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, spec := range tableSpecs {
		records, err := readJSONL(filepath.Join(dataDir, spec.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", spec.file, err)
		}
		if len(records) == 0 {
			continue
		}
		if err := insertRecords(tx, spec, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", spec.file, spec.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertRecords inserts parsed JSONL records into a SQLite table. Only the
// spec's columns are extracted. Nested JSON values are re-serialized to the
// text form the JSON columns hold.
func insertRecords(tx *sql.Tx, spec tableSpec, records []json.RawMessage) error {
	placeholders := make([]string, len(spec.columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		spec.name,
		strings.Join(spec.columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", spec.name, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}

		args := make([]any, len(spec.columns))
		for i, col := range spec.columns {
			val, ok := obj[col]
			if !ok || val == nil {
				args[i] = defaultColumnValue(spec, col)
				continue
			}
			switch v := val.(type) {
			case map[string]any, []any:
				b, err := json.Marshal(v)
				if err != nil {
					args[i] = defaultColumnValue(spec, col)
					continue
				}
				args[i] = string(b)
			default:
				args[i] = val
			}
		}

		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
	}
	return nil
}

// defaultColumnValue fills a column that is absent from a record. JSON
// columns get an empty document; other columns get NULL, which a NOT NULL
// constraint then rejects so the record is skipped.
func defaultColumnValue(spec tableSpec, col string) any {
	if !spec.jsonColumns[col] {
		return nil
	}
	switch col {
	case "properties":
		if spec.name == "boards" {
			return "[]"
		}
		return "{}"
	case "permissions":
		return "[]"
	default:
		return "{}"
	}
}
