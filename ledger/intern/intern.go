// Package intern provides a concurrent-safe string interning table for
// account names and currency codes, so the core ledger can hold a single
// canonical instance of each repeated identifier and order them without
// going back to the parser.
package intern

import (
	"sync"
	"sync/atomic"
)

// Symbol is a canonical, interned string plus the monotonic index it was
// assigned on first sight. The index gives a stable total order for
// identifiers that compares consistently with insertion order, used as the
// tie-break when two values otherwise sort equal.
type Symbol struct {
	text  string
	index uint64
}

// String returns the interned text.
func (s *Symbol) String() string {
	if s == nil {
		return ""
	}
	return s.text
}

// Index returns the monotonic index assigned when this symbol was first
// interned. Lower indices were seen earlier.
func (s *Symbol) Index() uint64 {
	if s == nil {
		return 0
	}
	return s.index
}

// Less orders two symbols first by text, falling back to interning order
// only when the texts are equal.
func (s *Symbol) Less(other *Symbol) bool {
	if s.text != other.text {
		return s.text < other.text
	}
	return s.index < other.index
}

// Table is a concurrent-safe, append-only string interning table. Once a
// string is interned it is never evicted or mutated, so a *Symbol obtained
// from Intern remains valid, and comparable by pointer, for the table's
// entire lifetime.
type Table struct {
	entries sync.Map // string -> *Symbol
	counter uint64
}

// New creates an empty interning table.
func New() *Table {
	return &Table{}
}

// Intern returns the canonical Symbol for s, creating one on first sight.
// Safe for concurrent use by multiple goroutines.
func (t *Table) Intern(s string) *Symbol {
	if existing, ok := t.entries.Load(s); ok {
		return existing.(*Symbol)
	}

	candidate := &Symbol{
		text:  s,
		index: atomic.AddUint64(&t.counter, 1),
	}

	actual, loaded := t.entries.LoadOrStore(s, candidate)
	if loaded {
		return actual.(*Symbol)
	}
	return candidate
}

// InternBytes interns the string form of b without requiring the caller to
// allocate a string when the value is already known to the table.
func (t *Table) InternBytes(b []byte) *Symbol {
	if existing, ok := t.entries.Load(string(b)); ok {
		return existing.(*Symbol)
	}
	return t.Intern(string(b))
}

// Len reports the number of distinct strings interned so far. Intended for
// diagnostics and tests; under concurrent interning this is a snapshot, not
// a linearizable count.
func (t *Table) Len() int {
	n := 0
	t.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
