// Package intern provides the string interner consumed by the
// preprocessing core, so repeated token spellings across a
// translation unit share one backing string for the run's lifetime.
//
// This is a small hand-rolled table over a plain map guarded by a
// mutex (see DESIGN.md for why no third-party interner is used).
package intern

import "sync"

// Table is a process-wide string interner. The zero value is not
// usable; construct with New.
type Table struct {
	mu   sync.Mutex
	strs map[string]string
}

// New returns an empty interner.
func New() *Table {
	return &Table{strs: make(map[string]string)}
}

// Intern returns the canonical copy of s, storing it on first sight.
func (t *Table) Intern(s string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.strs[s]; ok {
		return v
	}
	t.strs[s] = s
	return s
}

// Concat interns the concatenation of a and b and returns its
// canonical copy.
func (t *Table) Concat(a, b string) string {
	return t.Intern(a + b)
}

// Raw returns the stored canonical string for s if present, and
// whether it was found. It never allocates or mutates the table.
func (t *Table) Raw(s string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.strs[s]
	return v, ok
}

// Clear releases all interned strings. Called by the core's
// clear_preprocessing entry point between translation units.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.strs = make(map[string]string)
}

// Len reports how many distinct strings are interned, mostly useful
// for tests and diagnostics.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.strs)
}
