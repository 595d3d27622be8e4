// Package intern provides the concurrent string intern table shared by the
// classfile parser (many producer instances, one per in-flight classfile)
// and the class graph linker (single consumer). It sits between the scan
// filter and the graph builder in the dependency order: parsers intern
// every class/interface/annotation name they emit so that two Unlinked
// Class Records referencing the same name share one string value by the
// time the linker sees them.
package intern

import "sync"

// Table is a concurrent put-if-absent string table, grounded on the
// fieldNameToID pattern in internal/parser/hprof's reference-graph builder
// (a map guarded by a dedicated RWMutex, read-checked before acquiring the
// write lock).
type Table struct {
	mu sync.RWMutex
	m  map[string]string
}

// New creates an empty intern table.
func New() *Table {
	return &Table{m: make(map[string]string)}
}

// Intern returns the canonical string value for s, inserting it on first
// sight. Every subsequent call with an equal string returns the exact same
// value that was first inserted, so two records referencing the same name
// end up sharing one string.
func (t *Table) Intern(s string) string {
	t.mu.RLock()
	if v, ok := t.m[s]; ok {
		t.mu.RUnlock()
		return v
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.m[s]; ok {
		return v
	}
	t.m[s] = s
	return s
}

// Len returns the number of distinct interned strings, for diagnostics.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}
