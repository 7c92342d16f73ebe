package classinfo

import (
	"fmt"
	"slices"
)

// ClassKind distinguishes the kinds of Java types a declaration can name.
type ClassKind int

const (
	Class ClassKind = iota
	Interface
	Enum
)

func (k ClassKind) String() string {
	switch k {
	case Class:
		return "class"
	case Interface:
		return "interface"
	case Enum:
		return "enum"
	}
	return fmt.Sprintf("ClassKind(%d)", int(k))
}

// ParseClassKind maps a declaration keyword to its ClassKind.
func ParseClassKind(s string) (ClassKind, bool) {
	switch s {
	case "class":
		return Class, true
	case "interface":
		return Interface, true
	case "enum":
		return Enum, true
	}
	return 0, false
}

// Privacy is a Java access level. The zero value is package-private.
type Privacy int

const (
	Package Privacy = iota
	Public
	Protected
	Private
)

func (p Privacy) String() string {
	switch p {
	case Public:
		return "public"
	case Protected:
		return "protected"
	case Private:
		return "private"
	}
	return ""
}

// Flags are the modifiers attached to a class or member.
type Flags struct {
	Privacy        Privacy
	IsStatic       bool
	IsFinal        bool
	IsAbstract     bool
	IsNative       bool
	IsSynchronized bool
	IsTransient    bool
	IsVolatile     bool
	IsDefault      bool
	IsSealed       bool
}

// Visible reports whether the member is part of the public or protected API.
func (f Flags) Visible() bool {
	return f.Privacy == Public || f.Privacy == Protected
}

// Words returns the modifiers in javap order.
func (f Flags) Words() []string {
	var words []string
	if p := f.Privacy.String(); p != "" {
		words = append(words, p)
	}
	add := func(set bool, word string) {
		if set {
			words = append(words, word)
		}
	}
	add(f.IsDefault, "default")
	add(f.IsStatic, "static")
	add(f.IsAbstract, "abstract")
	add(f.IsSealed, "sealed")
	add(f.IsFinal, "final")
	add(f.IsTransient, "transient")
	add(f.IsVolatile, "volatile")
	add(f.IsSynchronized, "synchronized")
	add(f.IsNative, "native")
	return words
}

// Generic is a declared type parameter with its bounds, as in `T extends Comparable<T>`.
type Generic struct {
	Id      Id
	Extends []RefType
}

// ClassRef names a class and supplies its type arguments.
type ClassRef struct {
	Name     DotId
	Generics []RefType
}

// RefKind enumerates the forms of reference type.
type RefKind int

const (
	RefClass RefKind = iota
	RefArray
	RefTypeParameter
	RefExtends  // ? extends Bound
	RefSuper    // ? super Bound
	RefWildcard // ?
)

// RefType is a Java reference type. Which fields are meaningful depends on Kind.
type RefType struct {
	Kind  RefKind
	Class ClassRef // RefClass
	Elem  *Type    // RefArray
	Var   Id       // RefTypeParameter
	Bound *RefType // RefExtends, RefSuper
}

// ScalarType is a Java primitive type.
type ScalarType int

const (
	Int ScalarType = iota
	Long
	Short
	Byte
	Double
	Float
	Char
	Boolean
)

var scalarNames = map[string]ScalarType{
	"int":     Int,
	"long":    Long,
	"short":   Short,
	"byte":    Byte,
	"double":  Double,
	"float":   Float,
	"char":    Char,
	"boolean": Boolean,
}

// ParseScalar maps a primitive keyword to its ScalarType.
func ParseScalar(s string) (ScalarType, bool) {
	t, ok := scalarNames[s]
	return t, ok
}

func (s ScalarType) String() string {
	for name, t := range scalarNames {
		if t == s {
			return name
		}
	}
	return fmt.Sprintf("ScalarType(%d)", int(s))
}

// TypeKind enumerates the forms of Type.
type TypeKind int

const (
	TypeRef TypeKind = iota
	TypeScalar
	TypeRepeat // trailing varargs parameter, T...
)

// Type is the type of a field, parameter or return value.
type Type struct {
	Kind   TypeKind
	Ref    *RefType   // TypeRef
	Scalar ScalarType // TypeScalar
	Elem   *Type      // TypeRepeat
}

// ScalarOf returns the Type for a primitive.
func ScalarOf(s ScalarType) Type {
	return Type{Kind: TypeScalar, Scalar: s}
}

// RefOf returns the Type for a reference.
func RefOf(r RefType) Type {
	return Type{Kind: TypeRef, Ref: &r}
}

// ClassType returns the Type for a non-generic class reference.
func ClassType(name DotId) Type {
	return RefOf(RefType{Kind: RefClass, Class: ClassRef{Name: name}})
}

// Constructor is a declared constructor.
type Constructor struct {
	Flags         Flags
	Generics      []Generic
	ArgumentTypes []Type
	Throws        []ClassRef
}

// Field is a declared field.
type Field struct {
	Flags Flags
	Name  Id
	Type  Type
}

// Method is a declared method. ReturnType is nil for void.
type Method struct {
	Flags         Flags
	Name          Id
	Generics      []Generic
	ArgumentTypes []Type
	ReturnType    *Type
	Throws        []ClassRef
}

// ClassInfo is the structural description of one class or interface. Once a
// ClassInfo has been placed in a model it is shared read-only.
type ClassInfo struct {
	Span         Span
	Flags        Flags
	Name         DotId
	Kind         ClassKind
	Generics     []Generic
	Extends      []ClassRef
	Implements   []ClassRef
	Constructors []Constructor
	Fields       []Field
	Methods      []Method
}

// Clone returns a copy whose member slices can be replaced without touching c.
// Element values are shared.
func (c *ClassInfo) Clone() *ClassInfo {
	out := *c
	out.Generics = slices.Clone(c.Generics)
	out.Extends = slices.Clone(c.Extends)
	out.Implements = slices.Clone(c.Implements)
	out.Constructors = slices.Clone(c.Constructors)
	out.Fields = slices.Clone(c.Fields)
	out.Methods = slices.Clone(c.Methods)
	return &out
}

// Supertypes returns Extends followed by Implements.
func (c *ClassInfo) Supertypes() []ClassRef {
	out := make([]ClassRef, 0, len(c.Extends)+len(c.Implements))
	out = append(out, c.Extends...)
	return append(out, c.Implements...)
}

// MethodsNamed returns the indices of methods called name, in declaration order.
func (c *ClassInfo) MethodsNamed(name Id) []int {
	var idx []int
	for i, m := range c.Methods {
		if m.Name == name {
			idx = append(idx, i)
		}
	}
	return idx
}

// VisibleMembers returns a copy of c keeping only public and protected
// constructors, fields and methods.
func (c *ClassInfo) VisibleMembers() *ClassInfo {
	out := c.Clone()
	out.Constructors = slices.DeleteFunc(out.Constructors, func(m Constructor) bool { return !m.Flags.Visible() })
	out.Fields = slices.DeleteFunc(out.Fields, func(m Field) bool { return !m.Flags.Visible() })
	out.Methods = slices.DeleteFunc(out.Methods, func(m Method) bool { return !m.Flags.Visible() })
	return out
}
