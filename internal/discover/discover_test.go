package discover

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/javap"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan_PublicTopLevelTypes(t *testing.T) {
	sc := NewScanner()
	defer sc.Close()

	src := `package com.example.shapes;

import java.util.List;

public abstract class Shape {
    public static class Inner {}
    public abstract double area();
}

class Hidden {}

public interface Drawable {}

public enum Color { RED, GREEN }
`
	types, err := sc.Scan(context.Background(), "Shape.java", []byte(src))
	require.NoError(t, err)
	require.Len(t, types, 3)

	assert.Equal(t, Type{Package: "com.example.shapes", Name: "Shape", Kind: classinfo.Class, File: "Shape.java", Line: 5}, types[0])
	assert.Equal(t, "Drawable", types[1].Name)
	assert.Equal(t, classinfo.Interface, types[1].Kind)
	assert.Equal(t, "Color", types[2].Name)
	assert.Equal(t, classinfo.Enum, types[2].Kind)
	assert.Equal(t, classinfo.DotId("com.example.shapes.Color"), types[2].QualifiedName())
}

func TestScan_DefaultPackage(t *testing.T) {
	sc := NewScanner()
	defer sc.Close()

	types, err := sc.Scan(context.Background(), "Main.java", []byte("public class Main {}\n"))
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "", types[0].Package)
	assert.Equal(t, classinfo.DotId("Main"), types[0].QualifiedName())
}

func TestFiles_SkipsIgnoredAndBuildDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a/A.java", "package a; public class A {}")
	writeFile(t, root, "src/a/package-info.java", "package a;")
	writeFile(t, root, "src/a/notes.txt", "hello")
	writeFile(t, root, "build/gen/G.java", "package gen; public class G {}")
	writeFile(t, root, ".hidden/H.java", "package h; public class H {}")
	writeFile(t, root, "generated/X.java", "package x; public class X {}")
	writeFile(t, root, ".gitignore", "generated/\n")

	files, err := Files(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("src", "a", "A.java")}, files)
}

func TestClasses_SortedAcrossFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b/Zed.java", "package b;\npublic class Zed {}\n")
	writeFile(t, root, "a/Beta.java", "package a;\npublic interface Beta {}\n")
	writeFile(t, root, "a/Alpha.java", "package a;\npublic class Alpha {}\nclass Private {}\n")

	types, err := Classes(context.Background(), root)
	require.NoError(t, err)

	var names []classinfo.DotId
	for _, ty := range types {
		names = append(names, ty.QualifiedName())
	}
	assert.Equal(t, []classinfo.DotId{"a.Alpha", "a.Beta", "b.Zed"}, names)
}

func TestClasses_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/A.java", "package a; public class A {}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Classes(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender_ParsesAsDeclarations(t *testing.T) {
	types := []Type{
		{Package: "a", Name: "Alpha", Kind: classinfo.Class},
		{Package: "b.c", Name: "Gamma", Kind: classinfo.Interface},
		{Package: "a", Name: "Beta", Kind: classinfo.Enum},
		{Package: "", Name: "Main", Kind: classinfo.Class},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, types))
	assert.Equal(t, "package a;\n\nclass Alpha { * }\nenum Beta { * }\n\npackage b.c;\n\ninterface Gamma { * }\n", buf.String())

	decl, err := javap.ParseDeclarations("gen.jb", buf.String())
	require.NoError(t, err)
	require.Len(t, decl.Packages, 2)
	assert.Len(t, decl.Packages[0].Classes, 2)
	rc, ok := decl.Packages[1].Classes[0].(*classinfo.ReflectedClass)
	require.True(t, ok)
	assert.Equal(t, classinfo.Interface, rc.Kind)
}
