package spawn

import "sort"

// ToolSet is a set of tool identifiers. The nil set is distinct from the
// empty set only where a Policy uses nil as the "any tool" sentinel; as a
// plain set, nil behaves as empty.
type ToolSet map[string]struct{}

// NewToolSet builds a set from names.
func NewToolSet(names ...string) ToolSet {
	s := make(ToolSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s ToolSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Intersect returns the elements present in both sets.
func (s ToolSet) Intersect(other ToolSet) ToolSet {
	out := make(ToolSet)
	for n := range s {
		if other.Contains(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

// Subset reports whether every element of s is in other.
func (s ToolSet) Subset(other ToolSet) bool {
	for n := range s {
		if !other.Contains(n) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy. Cloning nil yields nil so the "any
// tool" sentinel survives copying.
func (s ToolSet) Clone() ToolSet {
	if s == nil {
		return nil
	}
	out := make(ToolSet, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	return out
}

// Names returns the members sorted for deterministic reporting.
func (s ToolSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the member count.
func (s ToolSet) Len() int { return len(s) }
