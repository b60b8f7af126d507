package core

import (
	"fmt"
	"sort"
	"sync"
)

// TableDefinition contains everything needed to dispatch one import category.
type TableDefinition struct {
	Type          TableType // Enumerated identifier: "vaccination"
	Label         string    // Display name: "Vaccinations"
	Description   string    // One-line summary for GET /import
	RequiredField string    // Field that must be non-null after cleaning
	Endpoint      string    // Downstream bulk-import path: "/api/import/vaccinations"
}

var (
	registry   = make(map[TableType]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if a table with the same type is already registered or the
// definition is missing its required field or endpoint.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Type]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Type))
	}
	if def.RequiredField == "" || def.Endpoint == "" {
		panic(fmt.Sprintf("table %s: required field and endpoint must be set", def.Type))
	}

	registry[def.Type] = def
}

// Get returns a table definition by type.
// Returns false if not found.
func Get(t TableType) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[t]
	return def, ok
}

// All returns all registered table definitions sorted by type.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Type < result[j].Type
	})

	return result
}

// Types returns the allowed table-type enumeration, sorted.
func Types() []TableType {
	defs := All()
	types := make([]TableType, len(defs))
	for i, def := range defs {
		types[i] = def.Type
	}
	return types
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Dispatch validates the request shape against the registry: the table type
// must be registered and the row count must be in (0, maxRows]. Nothing about
// individual rows is inspected. Requests over the ceiling are rejected whole.
func Dispatch(t TableType, rowCount, maxRows int) (TableDefinition, error) {
	def, ok := Get(t)
	if !ok {
		return TableDefinition{}, &ValidationError{
			Reason:  ReasonUnknownTable,
			Message: fmt.Sprintf("unknown table type %q", t),
		}
	}

	if rowCount == 0 {
		return TableDefinition{}, &ValidationError{
			Reason:  ReasonNoRows,
			Message: "rows must be a non-empty array",
		}
	}

	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if rowCount > maxRows {
		return TableDefinition{}, &ValidationError{
			Reason:  ReasonTooManyRows,
			Message: fmt.Sprintf("too many rows: %d exceeds the limit of %d", rowCount, maxRows),
		}
	}

	return def, nil
}
