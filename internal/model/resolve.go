package model

import (
	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/diag"
	"github.com/jward/jbind/internal/reflector"
)

// ResolveSelector resolves sel against the classes already in the model.
// Unlike Reflector.ReflectMethod it never runs the tool.
func (m *RootMap) ResolveSelector(sel reflector.Selector) (*reflector.ReflectedMethod, error) {
	switch s := sel.(type) {
	case *reflector.ClassSelector:
		info, err := m.lookup(s.Class, s.Span)
		if err != nil {
			return nil, err
		}
		return reflector.SelectConstructor(info, s.Span)
	case *reflector.MethodSelector:
		info, err := m.lookup(s.Class, s.Span)
		if err != nil {
			return nil, err
		}
		return reflector.SelectMethod(info, s.Method.ToId(), s.Span)
	case *reflector.ClassInfoSelector:
		return nil, reflector.Unsupported(s)
	default:
		return nil, diag.Errorf(sel.SelectorSpan(), diag.CodeUnsupported, "unsupported selector %T", sel)
	}
}

func (m *RootMap) lookup(name classinfo.DotId, span classinfo.Span) (*classinfo.ClassInfo, error) {
	info, ok := m.Classes[name]
	if !ok {
		e := diag.Errorf(span, diag.CodeUnknownClass, "class `%s` is not declared", name)
		e.Class = name
		return nil, e
	}
	return info, nil
}
