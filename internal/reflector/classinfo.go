package reflector

import (
	"slices"

	"github.com/jward/jbind/internal/classinfo"
)

// JavapClassInfo is a reflected class body without a source location. It is
// what the cache holds; ToClassInfo places it at a declaration.
type JavapClassInfo struct {
	Flags        classinfo.Flags
	Name         classinfo.DotId
	Kind         classinfo.ClassKind
	Generics     []classinfo.Generic
	Extends      []classinfo.ClassRef
	Implements   []classinfo.ClassRef
	Constructors []classinfo.Constructor
	Fields       []classinfo.Field
	Methods      []classinfo.Method
}

// FromClassInfo drops the location of ci.
func FromClassInfo(ci *classinfo.ClassInfo) *JavapClassInfo {
	return &JavapClassInfo{
		Flags:        ci.Flags,
		Name:         ci.Name,
		Kind:         ci.Kind,
		Generics:     ci.Generics,
		Extends:      ci.Extends,
		Implements:   ci.Implements,
		Constructors: ci.Constructors,
		Fields:       ci.Fields,
		Methods:      ci.Methods,
	}
}

// ToClassInfo returns a ClassInfo located at span. The member slices are
// copied so the caller may adjust them without touching the cache.
func (j *JavapClassInfo) ToClassInfo(span classinfo.Span) *classinfo.ClassInfo {
	return &classinfo.ClassInfo{
		Span:         span,
		Flags:        j.Flags,
		Name:         j.Name,
		Kind:         j.Kind,
		Generics:     slices.Clone(j.Generics),
		Extends:      slices.Clone(j.Extends),
		Implements:   slices.Clone(j.Implements),
		Constructors: slices.Clone(j.Constructors),
		Fields:       slices.Clone(j.Fields),
		Methods:      slices.Clone(j.Methods),
	}
}
