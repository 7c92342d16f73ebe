package jbind

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/jbind/internal/config"
	"github.com/jward/jbind/internal/diag"
)

const helloListing = `Compiled from "Hello.java"
public class greet.Hello implements java.lang.Runnable {
  public greet.Hello();
  public void run();
  public static java.lang.String greet(java.lang.String);
  private void secret();
}
`

const objectListing = `Compiled from "Object.java"
public class java.lang.Object {
  public java.lang.Object();
  public native int hashCode();
  public java.lang.String toString();
}
`

const runnableListing = `Compiled from "Runnable.java"
public interface java.lang.Runnable {
  public abstract void run();
}
`

const helloDecl = `package greet;

class Hello { * }

package java.lang;

class Object { * }
interface Runnable { * }
`

// fakeJDK writes a javap stand-in that prints listings[<last argument>] and
// fails for unknown classes. Every invocation is appended to the returned
// log file.
func fakeJDK(t *testing.T, listings map[string]string) (bin, log string) {
	t.Helper()
	dir := t.TempDir()
	for name, out := range listings {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".txt"), []byte(out), 0o644))
	}
	log = filepath.Join(dir, "calls.log")
	script := "#!/bin/sh\n" +
		"echo \"$@\" >> '" + log + "'\n" +
		"for last; do :; done\n" +
		"if [ -f '" + dir + "'/\"$last.txt\" ]; then cat '" + dir + "'/\"$last.txt\"; exit 0; fi\n" +
		"echo \"Error: class not found: $last\" >&2\n" +
		"exit 1\n"
	bin = filepath.Join(dir, "javap")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin, log
}

func callCount(t *testing.T, log string) int {
	t.Helper()
	data, err := os.ReadFile(log)
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}
	require.NoError(t, err)
	return len(strings.Split(strings.TrimSpace(string(data)), "\n"))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, string) {
	t.Helper()
	bin, log := fakeJDK(t, map[string]string{
		"greet.Hello":        helloListing,
		"java.lang.Object":   objectListing,
		"java.lang.Runnable": runnableListing,
	})
	opts = append([]Option{WithJavap(bin), WithLogger(quietLogger())}, opts...)
	e, err := New(nil, opts...)
	require.NoError(t, err)
	return e, log
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTimeout, e.Config().Timeout)
	assert.True(t, e.useParallel)
	assert.Zero(t, e.Invocations())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Timeout = -time.Second
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jbind:")
}

func TestBuildModel_EndToEnd(t *testing.T) {
	for _, parallel := range []bool{true, false} {
		name := "serial"
		if parallel {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			e, log := newTestEngine(t, WithParallel(parallel), WithWorkers(2))
			decl, err := ParseDeclarations("hello.jb", helloDecl)
			require.NoError(t, err)

			m, err := e.BuildModel(context.Background(), decl)
			require.NoError(t, err)
			require.Len(t, m.Classes, 3)

			hello := m.Classes["greet.Hello"]
			require.NotNil(t, hello)
			assert.Equal(t, Span{File: "hello.jb", Line: 3, Col: 7}, hello.Span)
			assert.Len(t, hello.Methods, 2, "private members are not part of the model")

			runnable := m.Classes["java.lang.Runnable"]
			assert.Equal(t, "interface", runnable.Kind.String())

			assert.True(t, m.Upcasts.Contains("greet.Hello", "java.lang.Runnable"))
			assert.Equal(t, 3, callCount(t, log))
			assert.Equal(t, int64(3), e.Invocations())
		})
	}
}

func TestBuildModel_CacheSharedAcrossBuilds(t *testing.T) {
	e, log := newTestEngine(t)
	decl, err := ParseDeclarations("hello.jb", helloDecl)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.BuildModel(ctx, decl)
	require.NoError(t, err)

	// The second declaration file places the cached body at its own span.
	other, err := ParseDeclarations("other.jb", "package greet;\n\n\nclass greet.Hello { * }\n")
	require.NoError(t, err)
	m, err := e.BuildModel(ctx, other)
	require.NoError(t, err)

	assert.Equal(t, Span{File: "other.jb", Line: 4, Col: 7}, m.Classes["greet.Hello"].Span)
	assert.Equal(t, 3, callCount(t, log))
}

func TestBuildModel_FirstErrorInDeclarationOrder(t *testing.T) {
	e, _ := newTestEngine(t, WithWorkers(4))
	decl, err := ParseDeclarations("bad.jb", "package x;\nclass First { * }\nclass Second { * }\n")
	require.NoError(t, err)

	_, err = e.BuildModel(context.Background(), decl)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolExit))

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, Span{File: "bad.jb", Line: 2, Col: 7}, de.Span)
	assert.Contains(t, de.Message, "Error: class not found: x.First")
}

func TestBuildModel_FailedClassRunsJavapOnce(t *testing.T) {
	for _, parallel := range []bool{true, false} {
		name := "serial"
		if parallel {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			e, log := newTestEngine(t, WithParallel(parallel), WithWorkers(4))
			decl, err := ParseDeclarations("bad.jb", "package x;\nclass Missing { * }\nclass Other { * }\n")
			require.NoError(t, err)

			_, err = e.BuildModel(context.Background(), decl)
			require.Error(t, err)
			var de *Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, Span{File: "bad.jb", Line: 2, Col: 7}, de.Span)

			runs := map[string]int{}
			for _, line := range strings.Split(readLog(t, log), "\n") {
				runs[line]++
			}
			for args, n := range runs {
				assert.Equal(t, 1, n, "javap ran more than once with %q", args)
			}
			if parallel {
				assert.Equal(t, int64(2), e.Invocations(), "both classes prefetched, neither retried")
			} else {
				assert.Equal(t, int64(1), e.Invocations(), "serial builds stop at the first failure")
			}
		})
	}
}

func readLog(t *testing.T, log string) string {
	t.Helper()
	data, err := os.ReadFile(log)
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}

func TestBuildModel_NameMismatch(t *testing.T) {
	e, log := newTestEngine(t)
	decl, err := ParseDeclarations("bad.jb", "package greet;\nclass java.lang.Object { * }\n")
	require.NoError(t, err)

	_, err = e.BuildModel(context.Background(), decl)
	assert.Equal(t, diag.CodeNameMismatch, diag.CodeOf(err))
	assert.Zero(t, callCount(t, log), "mismatched names are not reflected")
}

func TestLoadModel(t *testing.T) {
	e, _ := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "hello.jb")
	require.NoError(t, os.WriteFile(path, []byte(helloDecl), 0o644))

	m, err := e.LoadModel(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Classes["greet.Hello"].Span.File)

	_, err = e.LoadModel(context.Background(), filepath.Join(t.TempDir(), "missing.jb"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read declarations")
}

func TestReflect(t *testing.T) {
	e, log := newTestEngine(t)
	ctx := context.Background()

	info, err := e.Reflect(ctx, "java.lang.Object")
	require.NoError(t, err)
	assert.Len(t, info.Methods, 2)
	assert.True(t, info.Span.IsZero())

	_, err = e.Reflect(ctx, "java.lang.Object")
	require.NoError(t, err)
	assert.Equal(t, 1, callCount(t, log))

	_, err = e.Reflect(ctx, "no.Such")
	assert.True(t, errors.Is(err, ErrToolExit))
}

func TestReflectMethod(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	ctor, err := e.ReflectMethod(ctx, "greet.Hello")
	require.NoError(t, err)
	assert.Equal(t, "new", string(ctor.Name()))
	assert.True(t, ctor.IsStatic())

	greet, err := e.ReflectMethod(ctx, "greet.Hello::greet")
	require.NoError(t, err)
	assert.True(t, greet.IsStatic())
	assert.Equal(t, "java.lang.String", greet.ReturnType().String())

	_, err = e.ReflectMethod(ctx, "greet.Hello::secret")
	assert.True(t, errors.Is(err, ErrNoMethod))

	_, err = e.ReflectMethod(ctx, "not a selector")
	assert.True(t, errors.Is(err, ErrParse))
}

func TestExport(t *testing.T) {
	e, _ := newTestEngine(t)
	decl, err := ParseDeclarations("hello.jb", helloDecl)
	require.NoError(t, err)
	ctx := context.Background()
	m, err := e.BuildModel(ctx, decl)
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "model.db")
	require.NoError(t, e.Export(ctx, m, dbPath))

	s, err := OpenStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	hello, err := s.ClassByName("greet.Hello")
	require.NoError(t, err)
	require.NotNil(t, hello)
	assert.Equal(t, "hello.jb", hello.File)

	count, err := s.GetMetadata("class_count")
	require.NoError(t, err)
	assert.Equal(t, "3", count)

	_, err = OpenStore(filepath.Join(t.TempDir(), "missing", "dir", "model.db"))
	assert.Error(t, err)
}
