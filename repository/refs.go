// Package repository holds the ref namespace: named pointers into the
// object pool and the ordered container the wire protocol advertises
// them from.
package repository

import (
	"sort"
	"strings"

	"github.com/JamesChan/ngit/object"
)

// A Ref is a named pointer to an object.
type Ref struct {
	Name string
	ID   object.ID
}

// ValidName reports whether name is usable on the wire: non-empty and
// free of NUL.
func ValidName(name string) bool {
	return name != "" && !strings.ContainsRune(name, 0)
}

// RefMap is the protocol's canonical ref container: refs iterate in
// ascending byte order of their full name, no matter the insertion
// order. The advertiser preserves this order as-is.
type RefMap struct {
	refs []Ref
}

func NewRefMap() *RefMap {
	return &RefMap{}
}

// Set inserts or replaces the ref named name.
func (m *RefMap) Set(name string, id object.ID) {
	i := sort.Search(len(m.refs), func(i int) bool {
		return m.refs[i].Name >= name
	})
	if i < len(m.refs) && m.refs[i].Name == name {
		m.refs[i].ID = id
		return
	}
	m.refs = append(m.refs, Ref{})
	copy(m.refs[i+1:], m.refs[i:])
	m.refs[i] = Ref{Name: name, ID: id}
}

// Get returns the ref named name.
func (m *RefMap) Get(name string) (object.ID, bool) {
	i := sort.Search(len(m.refs), func(i int) bool {
		return m.refs[i].Name >= name
	})
	if i < len(m.refs) && m.refs[i].Name == name {
		return m.refs[i].ID, true
	}
	return object.ZeroID, false
}

func (m *RefMap) Len() int {
	return len(m.refs)
}

// All returns the refs in canonical order. The slice is shared;
// callers must not modify it.
func (m *RefMap) All() []Ref {
	return m.refs
}

// SortedNames returns the keys of a plain ref map in the canonical
// byte order.
func SortedNames(refs map[string]object.ID) []string {
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
