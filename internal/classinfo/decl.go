package classinfo

// Declaration is a complete set of user declarations, grouped by package.
type Declaration struct {
	Packages []JavaPackage
}

// JavaPackage is one `package a.b;` block and the classes declared in it.
// The same package may appear in several blocks.
type JavaPackage struct {
	Name    PackageName
	Classes []ClassDecl
}

// PackageName is a dotted package path as written.
type PackageName []Ident

// Ids drops the locations.
func (p PackageName) Ids() []Id {
	ids := make([]Id, len(p))
	for i, id := range p {
		ids[i] = id.ToId()
	}
	return ids
}

func (p PackageName) String() string {
	return JoinIds(p.Ids())
}

// ClassDecl is one class declaration inside a package block. It is either a
// *ReflectedClass or a *SpecifiedClass.
type ClassDecl interface {
	DeclSpan() Span
	isClassDecl()
}

// ReflectedClass asks for the class body to be read from compiled output.
// Kind records how the user introduced the class and overrides the
// reflected kind.
type ReflectedClass struct {
	Span Span
	Name DotId
	Kind ClassKind
}

// SpecifiedClass carries a class body written out by the user.
type SpecifiedClass struct {
	Info *ClassInfo
}

func (c *ReflectedClass) DeclSpan() Span { return c.Span }
func (c *SpecifiedClass) DeclSpan() Span { return c.Info.Span }

func (*ReflectedClass) isClassDecl()  {}
func (*SpecifiedClass) isClassDecl() {}
