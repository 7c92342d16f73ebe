package jbind

import (
	"github.com/jward/jbind/internal/classinfo"
)

// TypeHierarchy is the hierarchy view of one class in a model.
type TypeHierarchy struct {
	Class      *ClassInfo
	Extends    []DotId // direct superclasses (superinterfaces for an interface)
	Implements []DotId // directly implemented interfaces
	Upcasts    []DotId // every type the class converts to, sorted
	Subtypes   []DotId // model classes that upcast to this class, sorted
}

// TypeHierarchy returns the hierarchy of a class, or nil if the model does
// not contain it.
func (q *QueryBuilder) TypeHierarchy(name string) *TypeHierarchy {
	info := q.Class(name)
	if info == nil {
		return nil
	}
	h := &TypeHierarchy{
		Class:    info,
		Upcasts:  q.model.Upcasts.Of(info.Name),
		Subtypes: q.model.Upcasts.Subtypes(info.Name),
	}
	for _, r := range info.Extends {
		h.Extends = append(h.Extends, r.Name)
	}
	for _, r := range info.Implements {
		h.Implements = append(h.Implements, r.Name)
	}
	return h
}

// Supertypes returns every type name converts to, sorted. Unknown classes
// have none.
func (q *QueryBuilder) Supertypes(name string) []DotId {
	return q.model.Upcasts.Of(classinfo.DotId(name))
}

// Subtypes returns the model classes that upcast to name, sorted.
func (q *QueryBuilder) Subtypes(name string) []DotId {
	return q.model.Upcasts.Subtypes(classinfo.DotId(name))
}

// IsUpcast reports whether a value of class sub may be used where super is
// expected. A known class is an upcast of itself.
func (q *QueryBuilder) IsUpcast(sub, super string) bool {
	return q.model.Upcasts.Contains(classinfo.DotId(sub), classinfo.DotId(super))
}
