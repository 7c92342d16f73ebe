package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/diag"
	"github.com/jward/jbind/internal/javap"
	"github.com/jward/jbind/internal/reflector"
	"github.com/jward/jbind/internal/upcasts"
)

// fakeReflector serves canned bodies and counts requests.
type fakeReflector struct {
	classes map[classinfo.DotId]*reflector.JavapClassInfo
	calls   []classinfo.DotId
}

func (f *fakeReflector) Reflect(_ context.Context, name classinfo.DotId, span classinfo.Span) (*reflector.JavapClassInfo, error) {
	f.calls = append(f.calls, name)
	info, ok := f.classes[name]
	if !ok {
		return nil, diag.Errorf(span, diag.CodeToolExit, "unsuccessful execution of `javap -p %s` (exit status: 1): error", name)
	}
	return info, nil
}

func newFake() *fakeReflector {
	return &fakeReflector{classes: map[classinfo.DotId]*reflector.JavapClassInfo{
		"java.lang.Object": {
			Name:         "java.lang.Object",
			Kind:         classinfo.Class,
			Constructors: []classinfo.Constructor{{Flags: classinfo.Flags{Privacy: classinfo.Public}}},
		},
		"java.lang.Runnable": {
			Name:    "java.lang.Runnable",
			Kind:    classinfo.Class,
			Methods: []classinfo.Method{{Name: "run"}},
		},
		"java.lang.Thread": {
			Name:       "java.lang.Thread",
			Kind:       classinfo.Class,
			Extends:    []classinfo.ClassRef{{Name: "java.lang.Object"}},
			Implements: []classinfo.ClassRef{{Name: "java.lang.Runnable"}},
		},
	}}
}

func parse(t *testing.T, src string) *classinfo.Declaration {
	t.Helper()
	decl, err := javap.ParseDeclarations("test.jb", src)
	require.NoError(t, err)
	return decl
}

func TestBuildRootMap_ReflectedClassKeepsUserKind(t *testing.T) {
	f := newFake()
	decl := parse(t, `package java.lang;
class Object { * }
interface Runnable { * }
`)
	m, err := BuildRootMap(context.Background(), decl, f)
	require.NoError(t, err)

	run := m.Classes["java.lang.Runnable"]
	require.NotNil(t, run)
	assert.Equal(t, classinfo.Interface, run.Kind, "declared kind overrides the reflected one")
	assert.Equal(t, classinfo.Span{File: "test.jb", Line: 3, Col: 11}, run.Span)
	assert.Len(t, run.Methods, 1)

	assert.Equal(t, []classinfo.DotId{"java.lang.Object", "java.lang.Runnable"}, f.calls)
	assert.Equal(t, classinfo.Class, f.classes["java.lang.Runnable"].Kind, "the cached body is untouched")
}

func TestAbsoluteName(t *testing.T) {
	pkg := classinfo.PackageName{{Text: "a"}, {Text: "b"}}
	span := classinfo.Span{File: "x.jb", Line: 2, Col: 4}

	name, err := AbsoluteName(pkg, "C", span)
	require.NoError(t, err)
	assert.Equal(t, classinfo.DotId("a.b.C"), name)

	name, err = AbsoluteName(pkg, "a.b.C", span)
	require.NoError(t, err)
	assert.Equal(t, classinfo.DotId("a.b.C"), name)

	_, err = AbsoluteName(pkg, "x.y.C", span)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeNameMismatch, de.Code)
	assert.Equal(t, span, de.Span)
	assert.Equal(t, "x.jb:2:4: expected package `a.b`", de.Error())

	_, err = AbsoluteName(pkg, "a.C", span)
	assert.True(t, errors.Is(err, diag.ErrNameMismatch), "a prefix must match the whole package")
}

func TestBuildRootMap_NameMismatchStopsBuild(t *testing.T) {
	f := newFake()
	decl := parse(t, `package a.b;
class C { }
class x.y.D { }
class E { }
`)
	_, err := BuildRootMap(context.Background(), decl, f)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeNameMismatch, de.Code)
	assert.Equal(t, 3, de.Span.Line)
}

func TestBuildRootMap_SpecifiedClassGetsAbsoluteName(t *testing.T) {
	decl := parse(t, `package a.b;
class C {
  public C();
}
class a.b.D {
}
`)
	m, err := BuildRootMap(context.Background(), decl, newFake())
	require.NoError(t, err)
	require.Contains(t, m.Classes, classinfo.DotId("a.b.C"))
	require.Contains(t, m.Classes, classinfo.DotId("a.b.D"))
	assert.Equal(t, classinfo.DotId("a.b.C"), m.Classes["a.b.C"].Name)

	b := m.Package([]classinfo.Id{"a", "b"})
	require.NotNil(t, b)
	assert.Equal(t, []classinfo.DotId{"a.b.C", "a.b.D"}, b.Classes)
	assert.Empty(t, m.Package([]classinfo.Id{"a"}).Classes)
}

func TestBuildRootMap_MergesRepeatedPackages(t *testing.T) {
	decl := parse(t, `package a.b;
class C { }

package a.c;
class X { }

package a.b;
class D { }
`)
	m, err := BuildRootMap(context.Background(), decl, newFake())
	require.NoError(t, err)

	require.Len(t, m.Subpackages, 1)
	a := m.Subpackages["a"]
	require.Len(t, a.Subpackages, 2)
	b := a.Subpackages["b"]
	assert.Equal(t, []classinfo.DotId{"a.b.C", "a.b.D"}, b.Classes)
	assert.Equal(t, classinfo.Span{File: "test.jb", Line: 1, Col: 11}, b.Span, "first declaration keeps the span")

	var paths []string
	m.WalkPackages(func(path []classinfo.Id, p *PackageInfo) {
		paths = append(paths, classinfo.JoinIds(path))
	})
	assert.Equal(t, []string{"a", "a.b", "a.c"}, paths)
}

func TestBuildRootMap_DuplicateClassIsAnError(t *testing.T) {
	decl := parse(t, `package a;
class C { }
class a.C { }
`)
	_, err := BuildRootMap(context.Background(), decl, newFake())
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeDuplicateClass, de.Code)
	assert.Equal(t, 3, de.Span.Line)
	assert.Contains(t, de.Message, "already declared at test.jb:2:7")

	// Across package blocks as well.
	decl = parse(t, "package a;\nclass C { }\npackage a;\nclass C { * }\n")
	_, err = BuildRootMap(context.Background(), decl, newFake())
	assert.True(t, errors.Is(err, diag.ErrDuplicateClass))
}

func TestBuildRootMap_ReflectedNameMustMatchRequest(t *testing.T) {
	f := newFake()
	f.classes["a.Alias"] = &reflector.JavapClassInfo{Name: "a.Real", Kind: classinfo.Class}
	decl := parse(t, "package a;\nclass Alias { * }\n")

	_, err := BuildRootMap(context.Background(), decl, f)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeNameMismatch, de.Code)
	assert.Equal(t, classinfo.Span{File: "test.jb", Line: 2, Col: 7}, de.Span)
	assert.Contains(t, de.Message, "`a.Real` when asked for `a.Alias`")
}

func TestBuildRootMap_ReflectFailurePropagates(t *testing.T) {
	decl := parse(t, "package x;\nclass Missing { * }\n")
	_, err := BuildRootMap(context.Background(), decl, newFake())
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeToolExit, de.Code)
	assert.Equal(t, classinfo.Span{File: "test.jb", Line: 2, Col: 7}, de.Span)
}

func TestBuildRootMap_EmptyPackage(t *testing.T) {
	decl := &classinfo.Declaration{Packages: []classinfo.JavaPackage{{
		Classes: []classinfo.ClassDecl{&classinfo.ReflectedClass{Name: "C"}},
	}}}
	_, err := BuildRootMap(context.Background(), decl, newFake())
	assert.True(t, errors.Is(err, diag.ErrUnsupported))
}

func TestBuildRootMap_Upcasts(t *testing.T) {
	decl := parse(t, `package java.lang;
class Object { * }
class Runnable { * }
class Thread { * }
`)
	m, err := BuildRootMap(context.Background(), decl, newFake())
	require.NoError(t, err)
	assert.Equal(t, 3, m.Upcasts.Len())
	assert.True(t, m.Upcasts.Contains("java.lang.Thread", "java.lang.Runnable"))
	assert.Equal(t, []classinfo.DotId{"java.lang.Object", "java.lang.Runnable"}, m.Upcasts.Of("java.lang.Thread"))
	assert.Equal(t, []classinfo.DotId{upcasts.Object}, m.Upcasts.Of("java.lang.Runnable"))
}

func TestEndToEnd_GreetHello(t *testing.T) {
	decl := parse(t, `package greet;
class greet.Hello {
  public greet.Hello();
  public void sayHi();
}
`)
	m, err := BuildRootMap(context.Background(), decl, newFake())
	require.NoError(t, err)

	ctor, err := m.ResolveSelector(&reflector.ClassSelector{Class: "greet.Hello"})
	require.NoError(t, err)
	assert.Equal(t, reflector.KindConstructor, ctor.Kind())
	assert.Equal(t, 0, ctor.Index())
	assert.Equal(t, classinfo.Id("new"), ctor.Name())

	hi, err := m.ResolveSelector(&reflector.MethodSelector{Class: "greet.Hello", Method: classinfo.Ident{Text: "sayHi"}})
	require.NoError(t, err)
	assert.Equal(t, reflector.KindMethod, hi.Kind())
	assert.Equal(t, 0, hi.Index())
	assert.False(t, hi.IsStatic())
	assert.Same(t, m.Classes["greet.Hello"], hi.ClassInfo())
}

func TestResolveSelector_Errors(t *testing.T) {
	decl := parse(t, `package demo;
class Greeter {
  public Greeter();
  public Greeter(java.lang.String);
  public java.lang.String greet(java.lang.String);
  public java.lang.String greet(int);
  public static void run();
}
class Empty {
}
`)
	m, err := BuildRootMap(context.Background(), decl, newFake())
	require.NoError(t, err)
	span := classinfo.Span{File: "sel.jb", Line: 1, Col: 1}

	_, err = m.ResolveSelector(&reflector.ClassSelector{Class: "demo.Greeter", Span: span})
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeAmbiguousConstructor, de.Code)
	assert.Equal(t, 2, de.Count)

	_, err = m.ResolveSelector(&reflector.ClassSelector{Class: "demo.Empty", Span: span})
	assert.True(t, errors.Is(err, diag.ErrNoConstructor))

	_, err = m.ResolveSelector(&reflector.MethodSelector{Class: "demo.Greeter", Method: classinfo.Ident{Text: "greet"}, Span: span})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeAmbiguousMethod, de.Code)
	assert.Equal(t, "greet", de.Member)
	assert.Equal(t, 2, de.Count)

	_, err = m.ResolveSelector(&reflector.MethodSelector{Class: "demo.Greeter", Method: classinfo.Ident{Text: "missing"}, Span: span})
	assert.True(t, errors.Is(err, diag.ErrNoMethod))

	run, err := m.ResolveSelector(&reflector.MethodSelector{Class: "demo.Greeter", Method: classinfo.Ident{Text: "run"}, Span: span})
	require.NoError(t, err)
	assert.Equal(t, 2, run.Index())
	assert.True(t, run.IsStatic())

	_, err = m.ResolveSelector(&reflector.ClassSelector{Class: "demo.Nope", Span: span})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeUnknownClass, de.Code)
	assert.Equal(t, span, de.Span)

	_, err = m.ResolveSelector(&reflector.ClassInfoSelector{Info: m.Classes["demo.Greeter"]})
	assert.True(t, errors.Is(err, diag.ErrUnsupported))
}

func TestBuildRootMap_ReflectRequestWithoutReflector(t *testing.T) {
	_, err := BuildRootMap(context.Background(), parse(t, "package java.lang;\nclass Object { * }\n"), nil)
	require.Error(t, err)
	assert.Equal(t, diag.CodeUnsupported, diag.CodeOf(err))
	assert.Contains(t, err.Error(), "without a reflector")
}
