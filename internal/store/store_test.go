package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/jbind/internal/javap"
	"github.com/jward/jbind/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

const shapesDecl = `package geo.shapes;

public abstract class Shape implements java.io.Serializable {
  public Shape();
  public abstract double area();
  public static <T extends geo.shapes.Shape> T largest(java.util.List<T>);
}

public class Circle extends geo.shapes.Shape {
  public final double radius;
  public Circle(double);
  public double area();
}

package geo;

public interface Named {
  public abstract java.lang.String name();
}
`

func buildModel(t *testing.T, src string) *model.RootMap {
	t.Helper()
	decl, err := javap.ParseDeclarations("shapes.jb", src)
	require.NoError(t, err)
	m, err := model.BuildRootMap(context.Background(), decl, nil)
	require.NoError(t, err)
	return m
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"packages", "classes", "members", "parameters", "supertypes", "upcasts", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestMigrate_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var mode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

// =============================================================================
// Save & query
// =============================================================================

func TestSave_Classes(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Save(context.Background(), buildModel(t, shapesDecl)))

	classes, err := s.Classes()
	require.NoError(t, err)
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"geo.Named", "geo.shapes.Circle", "geo.shapes.Shape"}, names)

	shape, err := s.ClassByName("geo.shapes.Shape")
	require.NoError(t, err)
	require.NotNil(t, shape)
	assert.Equal(t, "class", shape.Kind)
	assert.Equal(t, []string{"public", "abstract"}, shape.Modifiers)
	assert.Equal(t, "public abstract class geo.shapes.Shape implements java.io.Serializable", shape.Header)
	assert.Equal(t, "shapes.jb", shape.File)
	assert.Equal(t, 3, shape.Line)

	missing, err := s.ClassByName("geo.Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSave_MembersKeepSelectorOrdinals(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Save(context.Background(), buildModel(t, shapesDecl)))

	shape, err := s.ClassByName("geo.shapes.Shape")
	require.NoError(t, err)

	members, err := s.Members(shape.ID, "")
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, KindConstructor, members[0].Kind)
	assert.Equal(t, "new", members[0].Name)
	assert.True(t, members[0].IsStatic)

	largest := members[2]
	assert.Equal(t, KindMethod, largest.Kind)
	assert.Equal(t, 1, largest.Ordinal)
	assert.Equal(t, "<T extends geo.shapes.Shape>", largest.Generics)
	assert.Equal(t, "T", largest.TypeExpr)
	assert.True(t, largest.IsStatic)

	params, err := s.Parameters(largest.ID)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "java.util.List<T>", params[0].TypeExpr)

	circle, err := s.ClassByName("geo.shapes.Circle")
	require.NoError(t, err)
	fields, err := s.Members(circle.ID, KindField)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "public final double radius", fields[0].Signature)
}

func TestSave_PackagesAndHierarchy(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Save(context.Background(), buildModel(t, shapesDecl)))

	pkgs, err := s.Packages()
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "geo", pkgs[0].Path)
	assert.Nil(t, pkgs[0].ParentID)
	assert.Equal(t, "geo.shapes", pkgs[1].Path)
	require.NotNil(t, pkgs[1].ParentID)
	assert.Equal(t, pkgs[0].ID, *pkgs[1].ParentID)

	inShapes, err := s.ClassesInPackage(pkgs[1].ID)
	require.NoError(t, err)
	require.Len(t, inShapes, 2)
	assert.Equal(t, "geo.shapes.Shape", inShapes[0].Name, "declaration order")

	circle, err := s.ClassByName("geo.shapes.Circle")
	require.NoError(t, err)
	supers, err := s.Supertypes(circle.ID)
	require.NoError(t, err)
	require.Len(t, supers, 1)
	assert.Equal(t, SuperExtends, supers[0].Kind)
	assert.Equal(t, "geo.shapes.Shape", supers[0].Name)

	up, err := s.Upcasts("geo.shapes.Circle")
	require.NoError(t, err)
	assert.Equal(t, []string{"geo.shapes.Shape", "java.io.Serializable", "java.lang.Object"}, up)

	subs, err := s.Subtypes("java.io.Serializable")
	require.NoError(t, err)
	assert.Equal(t, []string{"geo.shapes.Circle", "geo.shapes.Shape"}, subs)
}

func TestSave_ReplacesPreviousExport(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, buildModel(t, shapesDecl)))
	require.NoError(t, s.Save(ctx, buildModel(t, "package a;\nclass B {\n}\n")))

	classes, err := s.Classes()
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "a.B", classes[0].Name)

	require.NoError(t, s.Clear())
	classes, err = s.Classes()
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("source")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("source", "a.jb"))
	require.NoError(t, s.SetMetadata("source", "b.jb"))
	v, err = s.GetMetadata("source")
	require.NoError(t, err)
	assert.Equal(t, "b.jb", v)
}

func TestQueryRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, buildModel(t, shapesDecl)))

	rows, err := s.QueryRows(ctx, "SELECT name, kind FROM classes WHERE kind = ? ORDER BY name", "interface")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "geo.Named", rows[0]["name"])

	require.NoError(t, s.SetMetadata("k", "v"))
	writes := []string{
		"DELETE FROM classes",
		"WITH x AS (SELECT 1) INSERT INTO metadata (key, value) VALUES ('pwn', 'yes')",
		"SELECT 1; DELETE FROM metadata",
		"SELECT 1; DROP TABLE classes",
	}
	for _, q := range writes {
		_, err := s.QueryRows(ctx, q)
		assert.Error(t, err, q)
	}

	got, err := s.GetMetadata("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	pwn, _ := s.GetMetadata("pwn")
	assert.Empty(t, pwn)
	classes, err := s.Classes()
	require.NoError(t, err)
	assert.Len(t, classes, 3)

	// The pool still hands out writable connections afterwards.
	require.NoError(t, s.SetMetadata("after", "ok"))
}
