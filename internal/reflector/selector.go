package reflector

import (
	"context"
	"fmt"
	"strings"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/diag"
)

// Selector names the constructor or method to bind. It is one of
// *ClassSelector, *MethodSelector or *ClassInfoSelector.
type Selector interface {
	SelectorSpan() classinfo.Span
	isSelector()
}

// ClassSelector picks the only constructor of Class.
type ClassSelector struct {
	Class classinfo.DotId
	Span  classinfo.Span
}

// MethodSelector picks the only method of Class called Method.
type MethodSelector struct {
	Class  classinfo.DotId
	Method classinfo.Ident
	Span   classinfo.Span
}

// ClassInfoSelector carries a fully written-out class body naming a single
// member. Resolving it is not supported yet.
type ClassInfoSelector struct {
	Info *classinfo.ClassInfo
}

func (s *ClassSelector) SelectorSpan() classinfo.Span     { return s.Span }
func (s *MethodSelector) SelectorSpan() classinfo.Span    { return s.Span }
func (s *ClassInfoSelector) SelectorSpan() classinfo.Span {
	if s.Info == nil {
		return classinfo.Span{}
	}
	return s.Info.Span
}

func (*ClassSelector) isSelector()     {}
func (*MethodSelector) isSelector()    {}
func (*ClassInfoSelector) isSelector() {}

// ParseSelector reads "a.b.C" or "a.b.C::member". Both parts are located at
// span.
func ParseSelector(text string, span classinfo.Span) (Selector, error) {
	class, member, hasMember := strings.Cut(strings.TrimSpace(text), "::")
	if !validDotted(class) {
		return nil, diag.Errorf(span, diag.CodeParse, "invalid selector %q: expected a class name", text)
	}
	if !hasMember {
		return &ClassSelector{Class: classinfo.DotId(class), Span: span}, nil
	}
	if member == "" || strings.ContainsAny(member, ". \t") {
		return nil, diag.Errorf(span, diag.CodeParse, "invalid selector %q: expected a member name after `::`", text)
	}
	return &MethodSelector{
		Class:  classinfo.DotId(class),
		Method: classinfo.Ident{Text: member, Span: span},
		Span:   span,
	}, nil
}

func validDotted(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if seg == "" || strings.ContainsAny(seg, " \t:") {
			return false
		}
	}
	return true
}

// ReflectMethod resolves sel by reflecting its class.
func (r *Reflector) ReflectMethod(ctx context.Context, sel Selector) (*ReflectedMethod, error) {
	switch s := sel.(type) {
	case *ClassSelector:
		info, err := r.Reflect(ctx, s.Class, s.Span)
		if err != nil {
			return nil, err
		}
		return SelectConstructor(info.ToClassInfo(s.Span), s.Span)
	case *MethodSelector:
		info, err := r.Reflect(ctx, s.Class, s.Span)
		if err != nil {
			return nil, err
		}
		return SelectMethod(info.ToClassInfo(s.Span), s.Method.ToId(), s.Span)
	case *ClassInfoSelector:
		return nil, Unsupported(s)
	default:
		return nil, diag.Errorf(classinfo.Span{}, diag.CodeUnsupported, "unsupported selector %T", sel)
	}
}

// Unsupported reports that sel cannot be resolved yet.
func Unsupported(sel *ClassInfoSelector) error {
	if sel == nil || sel.Info == nil {
		return diag.Errorf(classinfo.Span{}, diag.CodeUnsupported,
			"selecting a member through an explicit class declaration is not implemented")
	}
	e := diag.Errorf(sel.Info.Span, diag.CodeUnsupported,
		"selecting a member through an explicit class declaration of `%s` is not implemented", sel.Info.Name)
	e.Class = sel.Info.Name
	return e
}

// SelectConstructor returns the only constructor of info.
func SelectConstructor(info *classinfo.ClassInfo, span classinfo.Span) (*ReflectedMethod, error) {
	switch n := len(info.Constructors); n {
	case 1:
		return NewReflectedMethod(info, KindConstructor, 0), nil
	case 0:
		e := diag.Errorf(span, diag.CodeNoConstructor, "no constructors found for `%s`", info.Name)
		e.Class = info.Name
		return nil, e
	default:
		e := diag.Errorf(span, diag.CodeAmbiguousConstructor,
			"%d constructors found for `%s`, use an explicit class declaration to disambiguate", n, info.Name)
		e.Class = info.Name
		e.Count = n
		return nil, e
	}
}

// SelectMethod returns the only method of info called name.
func SelectMethod(info *classinfo.ClassInfo, name classinfo.Id, span classinfo.Span) (*ReflectedMethod, error) {
	idx := info.MethodsNamed(name)
	switch len(idx) {
	case 1:
		return NewReflectedMethod(info, KindMethod, idx[0]), nil
	case 0:
		e := diag.Errorf(span, diag.CodeNoMethod, "no methods named `%s` found in `%s`", name, info.Name)
		e.Class = info.Name
		e.Member = string(name)
		return nil, e
	default:
		e := diag.Errorf(span, diag.CodeAmbiguousMethod,
			"%d methods named `%s` found in `%s`, use an explicit class declaration to disambiguate",
			len(idx), name, info.Name)
		e.Class = info.Name
		e.Member = string(name)
		e.Count = len(idx)
		return nil, e
	}
}

func (s *ClassSelector) String() string  { return string(s.Class) }
func (s *MethodSelector) String() string { return fmt.Sprintf("%s::%s", s.Class, s.Method.Text) }
