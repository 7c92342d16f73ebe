// Package upcasts computes which types each class can be converted to
// without a cast: the transitive closure of its extends and implements
// clauses.
package upcasts

import (
	"slices"

	"github.com/jward/jbind/internal/classinfo"
)

// Object is the root of every class hierarchy.
const Object classinfo.DotId = "java.lang.Object"

// Upcasts maps each class to its supertypes, sorted by name. Supertypes that
// are not among the input classes appear as leaves.
type Upcasts struct {
	supers map[classinfo.DotId][]classinfo.DotId
}

// FromClasses computes the table for classes. Cycles in the input are
// tolerated.
func FromClasses(classes []*classinfo.ClassInfo) *Upcasts {
	byName := make(map[classinfo.DotId]*classinfo.ClassInfo, len(classes))
	for _, c := range classes {
		byName[c.Name] = c
	}

	u := &Upcasts{supers: make(map[classinfo.DotId][]classinfo.DotId, len(classes))}
	for _, c := range classes {
		seen := map[classinfo.DotId]bool{c.Name: true}
		stack := refs(c)
		var out []classinfo.DotId
		for len(stack) > 0 {
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
			if sup, ok := byName[name]; ok {
				stack = append(stack, refs(sup)...)
			}
		}
		if !seen[Object] {
			out = append(out, Object)
		}
		slices.Sort(out)
		u.supers[c.Name] = out
	}
	return u
}

func refs(c *classinfo.ClassInfo) []classinfo.DotId {
	var out []classinfo.DotId
	for _, r := range c.Supertypes() {
		out = append(out, r.Name)
	}
	return out
}

// Of returns the supertypes of name, or nil when name is unknown.
func (u *Upcasts) Of(name classinfo.DotId) []classinfo.DotId {
	return u.supers[name]
}

// Contains reports whether sub can be used where super is expected. Every
// known class is an upcast of itself.
func (u *Upcasts) Contains(sub, super classinfo.DotId) bool {
	supers, ok := u.supers[sub]
	if !ok {
		return false
	}
	if sub == super {
		return true
	}
	_, found := slices.BinarySearch(supers, super)
	return found
}

// Subtypes returns the known classes that upcast to super, sorted.
func (u *Upcasts) Subtypes(super classinfo.DotId) []classinfo.DotId {
	var out []classinfo.DotId
	for sub := range u.supers {
		if sub != super && u.Contains(sub, super) {
			out = append(out, sub)
		}
	}
	slices.Sort(out)
	return out
}

// Names returns every class in the table, sorted.
func (u *Upcasts) Names() []classinfo.DotId {
	out := make([]classinfo.DotId, 0, len(u.supers))
	for name := range u.supers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Len is the number of classes in the table.
func (u *Upcasts) Len() int {
	return len(u.supers)
}
