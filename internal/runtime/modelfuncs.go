package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/model"
	"github.com/jward/jbind/internal/reflector"
)

// Model host functions. Results are plain Risor lists and maps so scripts
// never hold Go pointers into the model.

func noModel(name string) object.Object {
	return object.Errorf("%s: no model loaded", name)
}

// classes() → [string], sorted
func makeClassesFn(m *model.RootMap) *object.Builtin {
	return object.NewBuiltin("classes", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("classes", 0, len(args))
		}
		if m == nil {
			return noModel("classes")
		}
		var out []object.Object
		for _, c := range m.SortedClasses() {
			out = append(out, object.NewString(string(c.Name)))
		}
		return stringsOrEmpty(out)
	})
}

// class_info(name) → map or nil
func makeClassInfoFn(m *model.RootMap) *object.Builtin {
	return object.NewBuiltin("class_info", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("class_info", 1, len(args))
		}
		if m == nil {
			return noModel("class_info")
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("class_info: %v", err)
		}
		info, ok := m.Classes[classinfo.DotId(name)]
		if !ok {
			return object.Nil
		}
		return classToMap(info)
	})
}

// packages() → [{path, span, classes}]
func makePackagesFn(m *model.RootMap) *object.Builtin {
	return object.NewBuiltin("packages", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("packages", 0, len(args))
		}
		if m == nil {
			return noModel("packages")
		}
		var out []object.Object
		m.WalkPackages(func(path []classinfo.Id, p *model.PackageInfo) {
			names := make([]string, len(p.Classes))
			for i, c := range p.Classes {
				names[i] = string(c)
			}
			out = append(out, object.NewMap(map[string]object.Object{
				"path":    object.NewString(classinfo.JoinIds(path)),
				"span":    object.NewString(p.Span.String()),
				"classes": stringList(names),
			}))
		})
		return stringsOrEmpty(out)
	})
}

// resolve(class) or resolve(class, member) → {class, kind, index, name, ...}
func makeResolveFn(m *model.RootMap) *object.Builtin {
	return object.NewBuiltin("resolve", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 && len(args) != 2 {
			return object.Errorf("resolve: expected 1 or 2 arguments, got %d", len(args))
		}
		if m == nil {
			return noModel("resolve")
		}
		class, err := toString(args[0])
		if err != nil {
			return object.Errorf("resolve: %v", err)
		}
		var sel reflector.Selector = &reflector.ClassSelector{Class: classinfo.DotId(class)}
		if len(args) == 2 {
			member, err := toString(args[1])
			if err != nil {
				return object.Errorf("resolve: %v", err)
			}
			sel = &reflector.MethodSelector{Class: classinfo.DotId(class), Method: classinfo.Ident{Text: member}}
		}
		rm, resolveErr := m.ResolveSelector(sel)
		if resolveErr != nil {
			return object.Errorf("resolve: %v", resolveErr)
		}
		return methodToMap(rm)
	})
}

// upcasts(name) → [string]
func makeUpcastsFn(m *model.RootMap) *object.Builtin {
	return object.NewBuiltin("upcasts", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("upcasts", 1, len(args))
		}
		if m == nil {
			return noModel("upcasts")
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("upcasts: %v", err)
		}
		var out []string
		for _, s := range m.Upcasts.Of(classinfo.DotId(name)) {
			out = append(out, string(s))
		}
		return stringList(out)
	})
}

// is_upcast(sub, super) → bool
func makeIsUpcastFn(m *model.RootMap) *object.Builtin {
	return object.NewBuiltin("is_upcast", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("is_upcast", 2, len(args))
		}
		if m == nil {
			return noModel("is_upcast")
		}
		sub, err := toString(args[0])
		if err != nil {
			return object.Errorf("is_upcast: %v", err)
		}
		super, err := toString(args[1])
		if err != nil {
			return object.Errorf("is_upcast: %v", err)
		}
		return object.NewBool(m.Upcasts.Contains(classinfo.DotId(sub), classinfo.DotId(super)))
	})
}

func classToMap(c *classinfo.ClassInfo) object.Object {
	var ctors, methods, fields []object.Object
	for i, k := range c.Constructors {
		ctors = append(ctors, object.NewMap(map[string]object.Object{
			"index":     object.NewInt(int64(i)),
			"signature": object.NewString(k.Signature(c.Name)),
			"args":      typeList(k.ArgumentTypes),
		}))
	}
	for i, meth := range c.Methods {
		ret := object.Object(object.Nil)
		if meth.ReturnType != nil {
			ret = object.NewString(meth.ReturnType.String())
		}
		methods = append(methods, object.NewMap(map[string]object.Object{
			"index":     object.NewInt(int64(i)),
			"name":      object.NewString(string(meth.Name)),
			"static":    object.NewBool(meth.Flags.IsStatic),
			"signature": object.NewString(meth.Signature()),
			"args":      typeList(meth.ArgumentTypes),
			"return":    ret,
		}))
	}
	for _, f := range c.Fields {
		fields = append(fields, object.NewMap(map[string]object.Object{
			"name":      object.NewString(string(f.Name)),
			"type":      object.NewString(f.Type.String()),
			"static":    object.NewBool(f.Flags.IsStatic),
			"signature": object.NewString(f.Signature()),
		}))
	}

	generics := make([]string, len(c.Generics))
	for i, g := range c.Generics {
		generics[i] = g.String()
	}
	return object.NewMap(map[string]object.Object{
		"name":         object.NewString(string(c.Name)),
		"kind":         object.NewString(c.Kind.String()),
		"span":         object.NewString(c.Span.String()),
		"modifiers":    stringList(c.Flags.Words()),
		"generics":     stringList(generics),
		"extends":      refList(c.Extends),
		"implements":   refList(c.Implements),
		"header":       object.NewString(c.Header()),
		"constructors": stringsOrEmpty(ctors),
		"methods":      stringsOrEmpty(methods),
		"fields":       stringsOrEmpty(fields),
	})
}

func methodToMap(rm *reflector.ReflectedMethod) object.Object {
	ret := object.Object(object.Nil)
	if t := rm.ReturnType(); t != nil {
		ret = object.NewString(t.String())
	}
	return object.NewMap(map[string]object.Object{
		"class":     object.NewString(string(rm.ClassInfo().Name)),
		"kind":      object.NewString(rm.Kind().String()),
		"index":     object.NewInt(int64(rm.Index())),
		"name":      object.NewString(string(rm.Name())),
		"static":    object.NewBool(rm.IsStatic()),
		"signature": object.NewString(rm.Signature()),
		"args":      typeList(rm.ArgumentTypes()),
		"return":    ret,
	})
}

func typeList(ts []classinfo.Type) object.Object {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return stringList(out)
}

func refList(rs []classinfo.ClassRef) object.Object {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return stringList(out)
}

func stringList(ss []string) object.Object {
	out := make([]object.Object, len(ss))
	for i, s := range ss {
		out[i] = object.NewString(s)
	}
	return object.NewList(out)
}

// stringsOrEmpty keeps an empty result a list rather than nil.
func stringsOrEmpty(items []object.Object) object.Object {
	if items == nil {
		items = []object.Object{}
	}
	return object.NewList(items)
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
