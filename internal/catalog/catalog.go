// Package catalog models the read-only reference catalogs (procurement
// methods, contract types, units of measure, provinces) consumed by
// validation. Catalogs are small and change rarely, so they are loaded once
// into an immutable in-memory Set and looked up by stable code.
package catalog

// Kind identifies one reference catalog.
type Kind string

const (
	KindMethod        Kind = "procurement_method"
	KindContractType  Kind = "contract_type"
	KindUnitOfMeasure Kind = "unit_of_measure"
	KindProvince      Kind = "province"
)

// Entry is one catalog record.
type Entry struct {
	Code string
	Name string
}

// Set is a snapshot of all catalogs. It is never mutated after loading.
type Set struct {
	entries map[Kind]map[string]Entry
}

// NewSet creates an empty catalog set.
func NewSet() *Set {
	return &Set{entries: make(map[Kind]map[string]Entry)}
}

// Add records an entry during loading.
func (s *Set) Add(kind Kind, e Entry) {
	m, ok := s.entries[kind]
	if !ok {
		m = make(map[string]Entry)
		s.entries[kind] = m
	}
	m[e.Code] = e
}

// Lookup returns the entry for a code, and whether it exists.
func (s *Set) Lookup(kind Kind, code string) (Entry, bool) {
	e, ok := s.entries[kind][code]
	return e, ok
}

// Has reports whether a code resolves in the given catalog.
func (s *Set) Has(kind Kind, code string) bool {
	_, ok := s.entries[kind][code]
	return ok
}

// Len returns the number of entries in one catalog.
func (s *Set) Len(kind Kind) int {
	return len(s.entries[kind])
}
