// Package model assembles user declarations into a RootMap: a package tree,
// a flat map from qualified name to class, and the upcasts table.
package model

import (
	"context"
	"slices"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/diag"
	"github.com/jward/jbind/internal/reflector"
	"github.com/jward/jbind/internal/upcasts"
)

// Reflector supplies class bodies for reflect requests.
type Reflector interface {
	Reflect(ctx context.Context, name classinfo.DotId, span classinfo.Span) (*reflector.JavapClassInfo, error)
}

// PackageInfo is one node of the package tree.
type PackageInfo struct {
	Name classinfo.Id
	// Span points at the first declaration of the package.
	Span        classinfo.Span
	Subpackages map[classinfo.Id]*PackageInfo
	// Classes lists the qualified names declared directly in this package,
	// in declaration order.
	Classes []classinfo.DotId
}

// RootMap is the finished model. It is not modified after BuildRootMap
// returns.
type RootMap struct {
	Subpackages map[classinfo.Id]*PackageInfo
	Classes     map[classinfo.DotId]*classinfo.ClassInfo
	Upcasts     *upcasts.Upcasts
}

// BuildRootMap places every class of decl in the package tree, reflecting
// those that ask for it. It stops at the first failing declaration.
func BuildRootMap(ctx context.Context, decl *classinfo.Declaration, r Reflector) (*RootMap, error) {
	m := &RootMap{
		Subpackages: make(map[classinfo.Id]*PackageInfo),
		Classes:     make(map[classinfo.DotId]*classinfo.ClassInfo),
	}
	for i := range decl.Packages {
		pkg := &decl.Packages[i]
		node, err := m.packageNode(pkg)
		if err != nil {
			return nil, err
		}
		for _, c := range pkg.Classes {
			if err := m.insertClass(ctx, r, pkg, node, c); err != nil {
				return nil, err
			}
		}
	}

	m.Upcasts = upcasts.FromClasses(m.SortedClasses())
	return m, nil
}

// packageNode walks down the tree along pkg's name, creating missing nodes.
// A package declared more than once shares one node.
func (m *RootMap) packageNode(pkg *classinfo.JavaPackage) (*PackageInfo, error) {
	if len(pkg.Name) == 0 {
		var span classinfo.Span
		if len(pkg.Classes) > 0 {
			span = pkg.Classes[0].DeclSpan()
		}
		return nil, diag.Errorf(span, diag.CodeUnsupported, "classes must be declared inside a package")
	}

	level := m.Subpackages
	var node *PackageInfo
	for _, seg := range pkg.Name {
		id := seg.ToId()
		child, ok := level[id]
		if !ok {
			child = &PackageInfo{
				Name:        id,
				Span:        seg.Span,
				Subpackages: make(map[classinfo.Id]*PackageInfo),
			}
			level[id] = child
		}
		node = child
		level = child.Subpackages
	}
	return node, nil
}

func (m *RootMap) insertClass(ctx context.Context, r Reflector, pkg *classinfo.JavaPackage, node *PackageInfo, decl classinfo.ClassDecl) error {
	var written classinfo.DotId
	switch c := decl.(type) {
	case *classinfo.ReflectedClass:
		written = c.Name
	case *classinfo.SpecifiedClass:
		written = c.Info.Name
	default:
		return diag.Errorf(decl.DeclSpan(), diag.CodeUnsupported, "unsupported class declaration %T", decl)
	}

	span := decl.DeclSpan()
	name, err := AbsoluteName(pkg.Name, written, span)
	if err != nil {
		return err
	}
	if prev, ok := m.Classes[name]; ok {
		e := diag.Errorf(span, diag.CodeDuplicateClass, "class `%s` is already declared at %s", name, prev.Span)
		e.Class = name
		return e
	}

	var info *classinfo.ClassInfo
	switch c := decl.(type) {
	case *classinfo.ReflectedClass:
		if r == nil {
			e := diag.Errorf(span, diag.CodeUnsupported, "cannot reflect `%s` without a reflector", name)
			e.Class = name
			return e
		}
		reflected, err := r.Reflect(ctx, name, span)
		if err != nil {
			return err
		}
		if reflected.Name != name {
			e := diag.Errorf(span, diag.CodeNameMismatch, "javap described `%s` when asked for `%s`", reflected.Name, name)
			e.Class = name
			return e
		}
		info = reflected.ToClassInfo(span)
		info.Kind = c.Kind
	case *classinfo.SpecifiedClass:
		info = c.Info.Clone()
		info.Name = name
	}

	m.Classes[name] = info
	node.Classes = append(node.Classes, name)
	return nil
}

// AbsoluteName qualifies a class name written inside package pkg. An
// unqualified name gets pkg's prefix; a qualified one must already carry it.
func AbsoluteName(pkg classinfo.PackageName, name classinfo.DotId, span classinfo.Span) (classinfo.DotId, error) {
	pkgIds := pkg.Ids()
	prefix, class := name.Split()
	if len(prefix) == 0 {
		return classinfo.NewDotId(pkgIds, class), nil
	}
	if !classinfo.SameIds(prefix, pkgIds) {
		e := diag.Errorf(span, diag.CodeNameMismatch, "expected package `%s`", pkg)
		e.Class = name
		return "", e
	}
	return name, nil
}

// SortedClasses returns the classes ordered by qualified name.
func (m *RootMap) SortedClasses() []*classinfo.ClassInfo {
	names := make([]classinfo.DotId, 0, len(m.Classes))
	for name := range m.Classes {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]*classinfo.ClassInfo, len(names))
	for i, name := range names {
		out[i] = m.Classes[name]
	}
	return out
}

// Package finds the node for a package path, or nil.
func (m *RootMap) Package(path []classinfo.Id) *PackageInfo {
	level := m.Subpackages
	var node *PackageInfo
	for _, id := range path {
		child, ok := level[id]
		if !ok {
			return nil
		}
		node = child
		level = child.Subpackages
	}
	return node
}

// WalkPackages visits every package node depth-first in name order. path is
// the node's full package path.
func (m *RootMap) WalkPackages(fn func(path []classinfo.Id, p *PackageInfo)) {
	walkPackages(nil, m.Subpackages, fn)
}

func walkPackages(prefix []classinfo.Id, level map[classinfo.Id]*PackageInfo, fn func([]classinfo.Id, *PackageInfo)) {
	ids := make([]classinfo.Id, 0, len(level))
	for id := range level {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		path := append(slices.Clone(prefix), id)
		fn(path, level[id])
		walkPackages(path, level[id].Subpackages, fn)
	}
}
