package reflector

import (
	"fmt"

	"github.com/jward/jbind/internal/classinfo"
)

// CallableKind distinguishes constructors from methods.
type CallableKind int

const (
	KindConstructor CallableKind = iota
	KindMethod
)

func (k CallableKind) String() string {
	if k == KindConstructor {
		return "constructor"
	}
	return "method"
}

// ReflectedMethod is a reference to one constructor or method of a class.
type ReflectedMethod struct {
	class *classinfo.ClassInfo
	kind  CallableKind
	index int
}

// NewReflectedMethod refers to the index'th constructor or method of class.
func NewReflectedMethod(class *classinfo.ClassInfo, kind CallableKind, index int) *ReflectedMethod {
	return &ReflectedMethod{class: class, kind: kind, index: index}
}

// ClassInfo returns the owning class.
func (m *ReflectedMethod) ClassInfo() *classinfo.ClassInfo { return m.class }

// Kind reports whether m is a constructor or a method.
func (m *ReflectedMethod) Kind() CallableKind { return m.kind }

// Index is the position of m among the class's constructors or methods.
func (m *ReflectedMethod) Index() int { return m.index }

// Name is "new" for constructors.
func (m *ReflectedMethod) Name() classinfo.Id {
	if m.kind == KindConstructor {
		return "new"
	}
	return m.class.Methods[m.index].Name
}

// IsStatic is always true for constructors.
func (m *ReflectedMethod) IsStatic() bool {
	if m.kind == KindConstructor {
		return true
	}
	return m.class.Methods[m.index].Flags.IsStatic
}

// Generics returns the callable's own type parameters.
func (m *ReflectedMethod) Generics() []classinfo.Generic {
	if m.kind == KindConstructor {
		return m.class.Constructors[m.index].Generics
	}
	return m.class.Methods[m.index].Generics
}

// ArgumentTypes returns the parameter types in order.
func (m *ReflectedMethod) ArgumentTypes() []classinfo.Type {
	if m.kind == KindConstructor {
		return m.class.Constructors[m.index].ArgumentTypes
	}
	return m.class.Methods[m.index].ArgumentTypes
}

// ReturnType is nil for void methods. A constructor returns its class.
func (m *ReflectedMethod) ReturnType() *classinfo.Type {
	if m.kind == KindConstructor {
		t := classinfo.ClassType(m.class.Name)
		return &t
	}
	return m.class.Methods[m.index].ReturnType
}

// Signature renders m the way javap prints it.
func (m *ReflectedMethod) Signature() string {
	if m.kind == KindConstructor {
		return m.class.Constructors[m.index].Signature(m.class.Name)
	}
	return m.class.Methods[m.index].Signature()
}

func (m *ReflectedMethod) String() string {
	return fmt.Sprintf("%s::%s", m.class.Name, m.Name())
}
