package discover

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/jward/jbind/internal/classinfo"
)

// Scanner extracts top-level type declarations from Java source. A Scanner
// owns a tree-sitter parser and is not safe for concurrent use.
type Scanner struct {
	parser *sitter.Parser
}

// NewScanner returns a Scanner configured for the Java grammar.
func NewScanner() *Scanner {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &Scanner{parser: p}
}

// Close releases the underlying parser.
func (s *Scanner) Close() {
	s.parser.Close()
}

var declKinds = map[string]classinfo.ClassKind{
	"class_declaration":           classinfo.Class,
	"record_declaration":          classinfo.Class,
	"interface_declaration":       classinfo.Interface,
	"annotation_type_declaration": classinfo.Interface,
	"enum_declaration":            classinfo.Enum,
}

// Scan parses src and returns its public top-level types in source order.
func (s *Scanner) Scan(ctx context.Context, file string, src []byte) ([]Type, error) {
	tree, err := s.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("discover: parse %s: %w", file, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	pkg := packageName(root, src)

	var out []Type
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		kind, ok := declKinds[child.Type()]
		if !ok || !isPublic(child, src) {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		out = append(out, Type{
			Package: pkg,
			Name:    nameNode.Content(src),
			Kind:    kind,
			File:    file,
			Line:    int(child.StartPoint().Row) + 1,
		})
	}
	return out, nil
}

func packageName(root *sitter.Node, src []byte) string {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "package_declaration" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			n := child.NamedChild(j)
			if n.Type() == "scoped_identifier" || n.Type() == "identifier" {
				return n.Content(src)
			}
		}
	}
	return ""
}

func isPublic(decl *sitter.Node, src []byte) bool {
	for i := 0; i < int(decl.ChildCount()); i++ {
		child := decl.Child(i)
		if child.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			if child.Child(j).Content(src) == "public" {
				return true
			}
		}
	}
	return false
}
