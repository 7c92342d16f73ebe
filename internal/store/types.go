package store

// Member kinds.
const (
	KindConstructor = "constructor"
	KindMethod      = "method"
	KindField       = "field"
)

// Supertype kinds.
const (
	SuperExtends    = "extends"
	SuperImplements = "implements"
)

type Package struct {
	ID       int64
	Path     string
	Name     string
	ParentID *int64
	File     string
	Line     int
	Col      int
}

type Class struct {
	ID        int64
	Name      string
	PackageID *int64
	Ordinal   int
	Kind      string
	Modifiers []string
	Generics  string
	Header    string
	File      string
	Line      int
	Col       int
}

// Member is a constructor, method or field. Ordinal is the position among
// members of the same kind, matching the index used by selectors.
type Member struct {
	ID        int64
	ClassID   int64
	Kind      string
	Ordinal   int
	Name      string
	Modifiers []string
	Generics  string
	TypeExpr  string
	Signature string
	IsStatic  bool
}

type Parameter struct {
	ID       int64
	MemberID int64
	Ordinal  int
	TypeExpr string
}

type Supertype struct {
	ID       int64
	ClassID  int64
	Kind     string
	Ordinal  int
	Name     string
	TypeExpr string
}
