package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
)

const classColumns = "id, name, package_id, ordinal, kind, modifiers, generics, header, file, line, col"

func scanClass(row interface{ Scan(...any) error }) (*Class, error) {
	c := &Class{}
	var mods, generics, header, file sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.PackageID, &c.Ordinal, &c.Kind, &mods, &generics, &header,
		&file, &c.Line, &c.Col); err != nil {
		return nil, err
	}
	c.Modifiers = unmarshalModifiers(mods.String)
	c.Generics = generics.String
	c.Header = header.String
	c.File = file.String
	return c, nil
}

// ClassByName returns the class with the given qualified name, or nil.
func (s *Store) ClassByName(name string) (*Class, error) {
	c, err := scanClass(s.db.QueryRow("SELECT "+classColumns+" FROM classes WHERE name = ?", name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("class by name: %w", err)
	}
	return c, nil
}

// Classes returns every class ordered by name.
func (s *Store) Classes() ([]*Class, error) {
	rows, err := s.db.Query("SELECT " + classColumns + " FROM classes ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("classes: %w", err)
	}
	defer rows.Close()
	var out []*Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ClassesInPackage returns the classes of a package in declaration order.
func (s *Store) ClassesInPackage(packageID int64) ([]*Class, error) {
	rows, err := s.db.Query("SELECT "+classColumns+" FROM classes WHERE package_id = ? ORDER BY ordinal", packageID)
	if err != nil {
		return nil, fmt.Errorf("classes in package: %w", err)
	}
	defer rows.Close()
	var out []*Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Packages returns every package ordered by path.
func (s *Store) Packages() ([]*Package, error) {
	rows, err := s.db.Query("SELECT id, path, name, parent_id, file, line, col FROM packages ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("packages: %w", err)
	}
	defer rows.Close()
	var out []*Package
	for rows.Next() {
		p := &Package{}
		var file sql.NullString
		if err := rows.Scan(&p.ID, &p.Path, &p.Name, &p.ParentID, &file, &p.Line, &p.Col); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		p.File = file.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// Members returns the members of a class. An empty kind returns all kinds:
// constructors, then methods, then fields, each in declaration order.
func (s *Store) Members(classID int64, kind string) ([]*Member, error) {
	q := `SELECT id, class_id, kind, ordinal, name, modifiers, generics, type_expr, signature, is_static
		FROM members WHERE class_id = ?`
	args := []any{classID}
	if kind != "" {
		q += " AND kind = ?"
		args = append(args, kind)
	}
	q += ` ORDER BY CASE kind WHEN 'constructor' THEN 0 WHEN 'method' THEN 1 ELSE 2 END, ordinal`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	defer rows.Close()
	var out []*Member
	for rows.Next() {
		m := &Member{}
		var mods, generics, typeExpr sql.NullString
		if err := rows.Scan(&m.ID, &m.ClassID, &m.Kind, &m.Ordinal, &m.Name, &mods, &generics, &typeExpr,
			&m.Signature, &m.IsStatic); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Modifiers = unmarshalModifiers(mods.String)
		m.Generics = generics.String
		m.TypeExpr = typeExpr.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// Parameters returns a member's parameters in order.
func (s *Store) Parameters(memberID int64) ([]*Parameter, error) {
	rows, err := s.db.Query(
		"SELECT id, member_id, ordinal, type_expr FROM parameters WHERE member_id = ? ORDER BY ordinal", memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("parameters: %w", err)
	}
	defer rows.Close()
	var out []*Parameter
	for rows.Next() {
		p := &Parameter{}
		if err := rows.Scan(&p.ID, &p.MemberID, &p.Ordinal, &p.TypeExpr); err != nil {
			return nil, fmt.Errorf("scan parameter: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Supertypes returns the extends clauses of a class followed by its
// implements clauses.
func (s *Store) Supertypes(classID int64) ([]*Supertype, error) {
	rows, err := s.db.Query(
		`SELECT id, class_id, kind, ordinal, name, type_expr FROM supertypes WHERE class_id = ?
		 ORDER BY CASE kind WHEN 'extends' THEN 0 ELSE 1 END, ordinal`, classID,
	)
	if err != nil {
		return nil, fmt.Errorf("supertypes: %w", err)
	}
	defer rows.Close()
	var out []*Supertype
	for rows.Next() {
		st := &Supertype{}
		if err := rows.Scan(&st.ID, &st.ClassID, &st.Kind, &st.Ordinal, &st.Name, &st.TypeExpr); err != nil {
			return nil, fmt.Errorf("scan supertype: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Upcasts returns every type the named class converts to, sorted.
func (s *Store) Upcasts(name string) ([]string, error) {
	return s.queryStrings(
		`SELECT u.target FROM upcasts u JOIN classes c ON c.id = u.class_id
		 WHERE c.name = ? ORDER BY u.target`, name)
}

// Subtypes returns the classes that upcast to target, sorted.
func (s *Store) Subtypes(target string) ([]string, error) {
	return s.queryStrings(
		`SELECT c.name FROM upcasts u JOIN classes c ON c.id = u.class_id
		 WHERE u.target = ? ORDER BY c.name`, target)
}

func (s *Store) queryStrings(q string, args ...any) ([]string, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// QueryRows runs q on a connection switched to query_only, so statements
// that write fail however they are spelled, and returns each row as a map
// from column name to value. TEXT and BLOB values come back as strings.
func (s *Store) QueryRows(ctx context.Context, q string, args ...any) ([]map[string]any, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer func() {
		if _, rerr := conn.ExecContext(context.Background(), "PRAGMA query_only = OFF"); rerr != nil {
			// Keep the read-only connection out of the pool.
			_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		}
	}()

	rows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query rows: columns: %w", err)
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query rows: scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				vals[i] = string(b)
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	return out, nil
}
