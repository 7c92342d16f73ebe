// Package classinfo defines the reflected model of Java classes: simple and
// dotted names, reference and scalar types, class members, and the user
// declarations that introduce classes into a model.
package classinfo

import (
	"fmt"
	"strings"
)

// Span locates a declaration in its source. Spans tag diagnostics; they never
// take part in equality of the values they are attached to.
type Span struct {
	File string
	Line int
	Col  int
}

// IsZero reports whether the span carries no location.
func (s Span) IsZero() bool {
	return s == Span{}
}

func (s Span) String() string {
	switch {
	case s.IsZero():
		return "<unknown>"
	case s.Line == 0:
		return s.File
	case s.File == "":
		return fmt.Sprintf("%d:%d", s.Line, s.Col)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
}

// Id is a simple Java name such as a package segment, class name or member name.
type Id string

// Ident is an Id as written by the user, with the location it was written at.
type Ident struct {
	Text string
	Span Span
}

// ToId drops the location.
func (i Ident) ToId() Id {
	return Id(i.Text)
}

func (i Ident) String() string {
	return i.Text
}

// DotId is a dotted name: zero or more package segments followed by a simple
// class name, e.g. "java.lang.String". DotIds compare as strings, which makes
// them usable as map keys with structural equality and ordering.
type DotId string

// NewDotId joins package segments and a class name.
func NewDotId(pkg []Id, class Id) DotId {
	if len(pkg) == 0 {
		return DotId(class)
	}
	var b strings.Builder
	for _, seg := range pkg {
		b.WriteString(string(seg))
		b.WriteByte('.')
	}
	b.WriteString(string(class))
	return DotId(b.String())
}

// DotIdFromIdents builds a DotId from a full list of segments, the last of
// which is the class name.
func DotIdFromIdents(ids []Ident) DotId {
	if len(ids) == 0 {
		return ""
	}
	pkg := make([]Id, 0, len(ids)-1)
	for _, id := range ids[:len(ids)-1] {
		pkg = append(pkg, id.ToId())
	}
	return NewDotId(pkg, ids[len(ids)-1].ToId())
}

// Split separates the package segments from the class name. The package is
// nil for an unqualified name. NewDotId(d.Split()) == d.
func (d DotId) Split() ([]Id, Id) {
	s := string(d)
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return nil, Id(s)
	}
	segs := strings.Split(s[:i], ".")
	pkg := make([]Id, len(segs))
	for j, seg := range segs {
		pkg[j] = Id(seg)
	}
	return pkg, Id(s[i+1:])
}

// Package returns the package segments.
func (d DotId) Package() []Id {
	pkg, _ := d.Split()
	return pkg
}

// Class returns the simple class name.
func (d DotId) Class() Id {
	_, class := d.Split()
	return class
}

// IsQualified reports whether the name carries a package prefix.
func (d DotId) IsQualified() bool {
	return strings.IndexByte(string(d), '.') >= 0
}

func (d DotId) String() string {
	return string(d)
}

// SameIds reports whether two segment lists are equal.
func SameIds(a, b []Id) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// JoinIds renders segments with dots.
func JoinIds(ids []Id) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ".")
}
