package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/model"
)

// Save replaces the stored model with m inside a single transaction.
//
// Insert order respects FK dependencies:
//  1. Packages (parents before children)
//  2. Classes (depend on package_id)
//  3. Members, then their parameters
//  4. Supertypes and upcasts (depend on class_id)
func (s *Store) Save(ctx context.Context, m *model.RootMap) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save: begin: %w", err)
	}
	defer tx.Rollback()

	if err := clearTx(tx); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	// 1. Packages
	pkgIDs := make(map[string]int64)
	classPkg := make(map[classinfo.DotId]int64)
	classOrd := make(map[classinfo.DotId]int)
	var walkErr error
	m.WalkPackages(func(path []classinfo.Id, p *model.PackageInfo) {
		if walkErr != nil {
			return
		}
		var parent *int64
		if len(path) > 1 {
			id := pkgIDs[classinfo.JoinIds(path[:len(path)-1])]
			parent = &id
		}
		key := classinfo.JoinIds(path)
		id, err := insertPackageTx(tx, &Package{
			Path: key, Name: string(p.Name), ParentID: parent,
			File: p.Span.File, Line: p.Span.Line, Col: p.Span.Col,
		})
		if err != nil {
			walkErr = fmt.Errorf("save: package %q: %w", key, err)
			return
		}
		pkgIDs[key] = id
		for i, name := range p.Classes {
			classPkg[name] = id
			classOrd[name] = i
		}
	})
	if walkErr != nil {
		return walkErr
	}

	// 2-4. Classes and everything hanging off them.
	for _, ci := range m.SortedClasses() {
		c := &Class{
			Name:      string(ci.Name),
			Ordinal:   classOrd[ci.Name],
			Kind:      ci.Kind.String(),
			Modifiers: ci.Flags.Words(),
			Generics:  renderGenerics(ci.Generics),
			Header:    ci.Header(),
			File:      ci.Span.File,
			Line:      ci.Span.Line,
			Col:       ci.Span.Col,
		}
		if id, ok := classPkg[ci.Name]; ok {
			c.PackageID = &id
		}
		classID, err := insertClassTx(tx, c)
		if err != nil {
			return fmt.Errorf("save: class %q: %w", ci.Name, err)
		}
		if err := saveMembersTx(tx, classID, ci); err != nil {
			return fmt.Errorf("save: class %q: %w", ci.Name, err)
		}
		if err := saveSupertypesTx(tx, classID, ci); err != nil {
			return fmt.Errorf("save: class %q: %w", ci.Name, err)
		}
		if m.Upcasts != nil {
			for _, target := range m.Upcasts.Of(ci.Name) {
				if _, err := tx.Exec("INSERT INTO upcasts (class_id, target) VALUES (?, ?)", classID, string(target)); err != nil {
					return fmt.Errorf("save: upcast %s -> %s: %w", ci.Name, target, err)
				}
			}
		}
	}

	return tx.Commit()
}

func saveMembersTx(tx *sql.Tx, classID int64, ci *classinfo.ClassInfo) error {
	for i, c := range ci.Constructors {
		mem := &Member{
			ClassID: classID, Kind: KindConstructor, Ordinal: i, Name: "new",
			Modifiers: c.Flags.Words(), Generics: renderGenerics(c.Generics),
			TypeExpr: string(ci.Name), Signature: c.Signature(ci.Name), IsStatic: true,
		}
		if err := insertMemberWithParamsTx(tx, mem, c.ArgumentTypes); err != nil {
			return err
		}
	}
	for i, meth := range ci.Methods {
		ret := "void"
		if meth.ReturnType != nil {
			ret = meth.ReturnType.String()
		}
		mem := &Member{
			ClassID: classID, Kind: KindMethod, Ordinal: i, Name: string(meth.Name),
			Modifiers: meth.Flags.Words(), Generics: renderGenerics(meth.Generics),
			TypeExpr: ret, Signature: meth.Signature(), IsStatic: meth.Flags.IsStatic,
		}
		if err := insertMemberWithParamsTx(tx, mem, meth.ArgumentTypes); err != nil {
			return err
		}
	}
	for i, f := range ci.Fields {
		mem := &Member{
			ClassID: classID, Kind: KindField, Ordinal: i, Name: string(f.Name),
			Modifiers: f.Flags.Words(), TypeExpr: f.Type.String(),
			Signature: f.Signature(), IsStatic: f.Flags.IsStatic,
		}
		if _, err := insertMemberTx(tx, mem); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return nil
}

func insertMemberWithParamsTx(tx *sql.Tx, mem *Member, args []classinfo.Type) error {
	id, err := insertMemberTx(tx, mem)
	if err != nil {
		return fmt.Errorf("%s %q: %w", mem.Kind, mem.Name, err)
	}
	for i, a := range args {
		if _, err := tx.Exec(
			"INSERT INTO parameters (member_id, ordinal, type_expr) VALUES (?, ?, ?)",
			id, i, a.String(),
		); err != nil {
			return fmt.Errorf("%s %q: parameter %d: %w", mem.Kind, mem.Name, i, err)
		}
	}
	return nil
}

func saveSupertypesTx(tx *sql.Tx, classID int64, ci *classinfo.ClassInfo) error {
	insert := func(kind string, refs []classinfo.ClassRef) error {
		for i, r := range refs {
			if _, err := tx.Exec(
				"INSERT INTO supertypes (class_id, kind, ordinal, name, type_expr) VALUES (?, ?, ?, ?, ?)",
				classID, kind, i, string(r.Name), r.String(),
			); err != nil {
				return fmt.Errorf("%s %s: %w", kind, r.Name, err)
			}
		}
		return nil
	}
	if err := insert(SuperExtends, ci.Extends); err != nil {
		return err
	}
	return insert(SuperImplements, ci.Implements)
}

// --- Transaction-scoped insert helpers ---

func insertPackageTx(tx *sql.Tx, p *Package) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO packages (path, name, parent_id, file, line, col) VALUES (?, ?, ?, ?, ?, ?)",
		p.Path, p.Name, p.ParentID, p.File, p.Line, p.Col,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertClassTx(tx *sql.Tx, c *Class) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO classes (name, package_id, ordinal, kind, modifiers, generics, header, file, line, col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.PackageID, c.Ordinal, c.Kind, marshalModifiers(c.Modifiers), c.Generics, c.Header,
		c.File, c.Line, c.Col,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertMemberTx(tx *sql.Tx, m *Member) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO members (class_id, kind, ordinal, name, modifiers, generics, type_expr, signature, is_static)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ClassID, m.Kind, m.Ordinal, m.Name, marshalModifiers(m.Modifiers), m.Generics,
		m.TypeExpr, m.Signature, m.IsStatic,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
