package classinfo

import "strings"

func (r ClassRef) String() string {
	if len(r.Generics) == 0 {
		return string(r.Name)
	}
	return string(r.Name) + "<" + joinRefs(r.Generics) + ">"
}

func (r RefType) String() string {
	switch r.Kind {
	case RefClass:
		return r.Class.String()
	case RefArray:
		return r.Elem.String() + "[]"
	case RefTypeParameter:
		return string(r.Var)
	case RefExtends:
		return "? extends " + r.Bound.String()
	case RefSuper:
		return "? super " + r.Bound.String()
	}
	return "?"
}

func (t Type) String() string {
	switch t.Kind {
	case TypeScalar:
		return t.Scalar.String()
	case TypeRepeat:
		return t.Elem.String() + "..."
	}
	if t.Ref == nil {
		return "<nil>"
	}
	return t.Ref.String()
}

func (g Generic) String() string {
	if len(g.Extends) == 0 {
		return string(g.Id)
	}
	bounds := make([]string, len(g.Extends))
	for i, b := range g.Extends {
		bounds[i] = b.String()
	}
	return string(g.Id) + " extends " + strings.Join(bounds, " & ")
}

// Signature renders the constructor as javap prints it for class name.
func (c Constructor) Signature(name DotId) string {
	var b strings.Builder
	writePrefix(&b, c.Flags, c.Generics)
	b.WriteString(string(name))
	writeArgs(&b, c.ArgumentTypes, c.Throws)
	return b.String()
}

// Signature renders the method as javap prints it.
func (m Method) Signature() string {
	var b strings.Builder
	writePrefix(&b, m.Flags, m.Generics)
	if m.ReturnType == nil {
		b.WriteString("void")
	} else {
		b.WriteString(m.ReturnType.String())
	}
	b.WriteByte(' ')
	b.WriteString(string(m.Name))
	writeArgs(&b, m.ArgumentTypes, m.Throws)
	return b.String()
}

// Signature renders the field as javap prints it.
func (f Field) Signature() string {
	var b strings.Builder
	writePrefix(&b, f.Flags, nil)
	b.WriteString(f.Type.String())
	b.WriteByte(' ')
	b.WriteString(string(f.Name))
	return b.String()
}

// Header renders the class declaration line without the opening brace.
func (c *ClassInfo) Header() string {
	var b strings.Builder
	for _, w := range c.Flags.Words() {
		b.WriteString(w)
		b.WriteByte(' ')
	}
	b.WriteString(c.Kind.String())
	b.WriteByte(' ')
	b.WriteString(string(c.Name))
	if len(c.Generics) > 0 {
		b.WriteString(joinGenerics(c.Generics))
	}
	if len(c.Extends) > 0 {
		b.WriteString(" extends ")
		b.WriteString(joinClassRefs(c.Extends))
	}
	if len(c.Implements) > 0 {
		b.WriteString(" implements ")
		b.WriteString(joinClassRefs(c.Implements))
	}
	return b.String()
}

func writePrefix(b *strings.Builder, flags Flags, generics []Generic) {
	for _, w := range flags.Words() {
		b.WriteString(w)
		b.WriteByte(' ')
	}
	if len(generics) > 0 {
		b.WriteString(joinGenerics(generics))
		b.WriteByte(' ')
	}
}

func writeArgs(b *strings.Builder, args []Type, throws []ClassRef) {
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	if len(throws) > 0 {
		b.WriteString(" throws ")
		b.WriteString(joinClassRefs(throws))
	}
}

func joinGenerics(gs []Generic) string {
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = g.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func joinRefs(rs []RefType) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

func joinClassRefs(rs []ClassRef) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
