package jbind

import (
	"strings"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/reflector"
)

// QueryBuilder answers questions about a finished Model. It never runs
// javap; every answer comes from the classes already in the model.
type QueryBuilder struct {
	model *Model
}

// NewQueryBuilder creates a QueryBuilder over m.
func NewQueryBuilder(m *Model) *QueryBuilder {
	return &QueryBuilder{model: m}
}

// PackageSummary describes one node of the package tree.
type PackageSummary struct {
	Path    string
	Span    Span
	Classes []DotId
}

// Class returns the class with the given qualified name, or nil.
func (q *QueryBuilder) Class(name string) *ClassInfo {
	return q.model.Classes[classinfo.DotId(name)]
}

// Classes returns every class ordered by qualified name.
func (q *QueryBuilder) Classes() []*ClassInfo {
	return q.model.SortedClasses()
}

// ClassesIn returns the classes declared directly in a dotted package, in
// declaration order. Returns nil if the package does not exist.
func (q *QueryBuilder) ClassesIn(pkg string) []*ClassInfo {
	var path []classinfo.Id
	for _, seg := range strings.Split(pkg, ".") {
		path = append(path, classinfo.Id(seg))
	}
	p := q.model.Package(path)
	if p == nil {
		return nil
	}
	out := make([]*ClassInfo, 0, len(p.Classes))
	for _, name := range p.Classes {
		out = append(out, q.model.Classes[name])
	}
	return out
}

// Packages lists every package, parents before children, siblings by name.
func (q *QueryBuilder) Packages() []PackageSummary {
	var out []PackageSummary
	q.model.WalkPackages(func(path []classinfo.Id, p *PackageInfo) {
		out = append(out, PackageSummary{
			Path:    classinfo.JoinIds(path),
			Span:    p.Span,
			Classes: append([]DotId(nil), p.Classes...),
		})
	})
	return out
}

// Resolve parses a selector ("a.B" for the unique constructor, "a.B::m" for
// the unique method m) and resolves it against the model.
func (q *QueryBuilder) Resolve(selector string) (*ReflectedMethod, error) {
	sel, err := reflector.ParseSelector(selector, classinfo.Span{})
	if err != nil {
		return nil, err
	}
	return q.model.ResolveSelector(sel)
}

// Overloads returns every method of class named method, in declaration
// order. It is the candidate list behind an ambiguous Resolve.
func (q *QueryBuilder) Overloads(class, method string) []*ReflectedMethod {
	info := q.Class(class)
	if info == nil {
		return nil
	}
	var out []*ReflectedMethod
	for _, i := range info.MethodsNamed(classinfo.Id(method)) {
		out = append(out, reflector.NewReflectedMethod(info, reflector.KindMethod, i))
	}
	return out
}

// Constructors returns every constructor of class, in declaration order.
func (q *QueryBuilder) Constructors(class string) []*ReflectedMethod {
	info := q.Class(class)
	if info == nil {
		return nil
	}
	out := make([]*ReflectedMethod, len(info.Constructors))
	for i := range info.Constructors {
		out[i] = reflector.NewReflectedMethod(info, reflector.KindConstructor, i)
	}
	return out
}
