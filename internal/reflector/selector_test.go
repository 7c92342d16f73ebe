package reflector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/diag"
)

func stringArg() classinfo.Type { return classinfo.ClassType("java.lang.String") }

func greeterInfo() *classinfo.ClassInfo {
	ret := stringArg()
	return &classinfo.ClassInfo{
		Name: "demo.Greeter",
		Kind: classinfo.Class,
		Constructors: []classinfo.Constructor{
			{Flags: classinfo.Flags{Privacy: classinfo.Public}},
		},
		Methods: []classinfo.Method{
			{Name: "greet", ArgumentTypes: []classinfo.Type{stringArg()}, ReturnType: &ret},
			{Name: "greet", ArgumentTypes: []classinfo.Type{classinfo.ScalarOf(classinfo.Int)}, ReturnType: &ret},
			{Name: "run", Flags: classinfo.Flags{IsStatic: true}},
		},
	}
}

func TestSelectConstructor(t *testing.T) {
	info := greeterInfo()
	m, err := SelectConstructor(info, site)
	require.NoError(t, err)
	assert.Equal(t, KindConstructor, m.Kind())
	assert.Equal(t, 0, m.Index())
	assert.Equal(t, classinfo.Id("new"), m.Name())
	assert.True(t, m.IsStatic())
	assert.Empty(t, m.ArgumentTypes())
	require.NotNil(t, m.ReturnType())
	assert.Equal(t, "demo.Greeter", m.ReturnType().String())
	assert.Equal(t, "public demo.Greeter()", m.Signature())

	info.Constructors = nil
	_, err = SelectConstructor(info, site)
	assert.True(t, errors.Is(err, diag.ErrNoConstructor))

	info.Constructors = make([]classinfo.Constructor, 2)
	_, err = SelectConstructor(info, site)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeAmbiguousConstructor, de.Code)
	assert.Equal(t, 2, de.Count)
	assert.Equal(t, site, de.Span)
	assert.Contains(t, de.Message, "use an explicit class declaration to disambiguate")
}

func TestSelectMethod(t *testing.T) {
	info := greeterInfo()

	_, err := SelectMethod(info, "greet", site)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeAmbiguousMethod, de.Code)
	assert.Equal(t, "greet", de.Member)
	assert.Equal(t, 2, de.Count)

	_, err = SelectMethod(info, "missing", site)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeNoMethod, de.Code)
	assert.Equal(t, "missing", de.Member)
	assert.Contains(t, de.Error(), "no methods named `missing` found in `demo.Greeter`")

	_, err = SelectMethod(info, "Run", site)
	assert.True(t, errors.Is(err, diag.ErrNoMethod), "names are case-sensitive")

	m, err := SelectMethod(info, "run", site)
	require.NoError(t, err)
	assert.Equal(t, KindMethod, m.Kind())
	assert.Equal(t, 2, m.Index())
	assert.Equal(t, classinfo.Id("run"), m.Name())
	assert.True(t, m.IsStatic())
	assert.Nil(t, m.ReturnType())
	assert.Same(t, info, m.ClassInfo())
	assert.Equal(t, "demo.Greeter::run", m.String())
}

func TestParseSelector(t *testing.T) {
	sel, err := ParseSelector("demo.Greeter", site)
	require.NoError(t, err)
	assert.Equal(t, &ClassSelector{Class: "demo.Greeter", Span: site}, sel)

	sel, err = ParseSelector(" demo.Greeter::greet ", site)
	require.NoError(t, err)
	ms, ok := sel.(*MethodSelector)
	require.True(t, ok)
	assert.Equal(t, classinfo.DotId("demo.Greeter"), ms.Class)
	assert.Equal(t, classinfo.Id("greet"), ms.Method.ToId())
	assert.Equal(t, site, ms.SelectorSpan())

	for _, bad := range []string{"", "a..B", "a.B::", "::m", "a.B::x.y"} {
		_, err := ParseSelector(bad, site)
		assert.Equal(t, diag.CodeParse, diag.CodeOf(err), bad)
	}
}

func TestReflectMethod(t *testing.T) {
	bin, log := fakeJavap(t, greeterListing, 0)
	r := newTestReflector(bin, "")
	ctx := context.Background()

	m, err := r.ReflectMethod(ctx, &ClassSelector{Class: "demo.Greeter", Span: site})
	require.NoError(t, err)
	assert.Equal(t, KindConstructor, m.Kind())
	assert.Len(t, m.ArgumentTypes(), 1, "the private constructor is not visible")
	assert.Equal(t, site, m.ClassInfo().Span)

	m, err = r.ReflectMethod(ctx, &MethodSelector{Class: "demo.Greeter", Method: classinfo.Ident{Text: "reset"}, Span: site})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Index())

	_, err = r.ReflectMethod(ctx, &MethodSelector{Class: "demo.Greeter", Method: classinfo.Ident{Text: "helper"}, Span: site})
	assert.True(t, errors.Is(err, diag.ErrNoMethod))

	assert.Len(t, calls(t, log), 1)
}

func TestReflectMethod_ClassInfoSelectorIsUnsupported(t *testing.T) {
	r := newTestReflector("javap", "")
	info := greeterInfo()
	info.Span = site

	_, err := r.ReflectMethod(context.Background(), &ClassInfoSelector{Info: info})
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.CodeUnsupported, de.Code)
	assert.Equal(t, site, de.Span)
	assert.Equal(t, int64(0), r.Invocations())
}

func TestReflectMethod_ClassInfoSelectorWithoutBody(t *testing.T) {
	r := newTestReflector("javap", "")
	sel := &ClassInfoSelector{}
	assert.Equal(t, classinfo.Span{}, sel.SelectorSpan())

	_, err := r.ReflectMethod(context.Background(), sel)
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrUnsupported))
	assert.Equal(t, diag.CodeUnsupported, diag.CodeOf(Unsupported(nil)))
}
