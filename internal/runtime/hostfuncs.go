package runtime

import (
	"context"
	"os"
	"sync"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/jward/jbind/internal/discover"
)

// sourceStore keeps the bytes each parsed tree was built from. query needs
// the source to evaluate predicates and to return capture text.
type sourceStore struct {
	mu      sync.Mutex
	sources map[*sitter.Tree][]byte
}

func newSourceStore() *sourceStore {
	return &sourceStore{sources: make(map[*sitter.Tree][]byte)}
}

func (s *sourceStore) put(tree *sitter.Tree, src []byte) {
	s.mu.Lock()
	s.sources[tree] = src
	s.mu.Unlock()
}

func (s *sourceStore) get(tree *sitter.Tree) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[tree]
	return src, ok
}

// closeAll releases every tree parsed during a script run.
func (s *sourceStore) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tree := range s.sources {
		tree.Close()
	}
	clear(s.sources)
}

// parse_java(path) → Tree
func makeParseJavaFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("parse_java", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("parse_java", 1, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("parse_java: path: %v", err)
		}
		src, readErr := os.ReadFile(path)
		if readErr != nil {
			return object.Errorf("parse_java: reading %s: %v", path, readErr)
		}
		return parseJava(ctx, ss, src)
	})
}

// java_src(source) → Tree
func makeJavaSrcFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("java_src", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("java_src", 1, len(args))
		}
		src, err := toString(args[0])
		if err != nil {
			return object.Errorf("java_src: source: %v", err)
		}
		return parseJava(ctx, ss, []byte(src))
	})
}

func parseJava(ctx context.Context, ss *sourceStore, src []byte) object.Object {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return object.Errorf("parse_java: tree-sitter parse failed: %v", err)
	}
	ss.put(tree, src)

	proxy, err := object.NewProxy(tree)
	if err != nil {
		return object.Errorf("parse_java: proxy error: %v", err)
	}
	return proxy
}

func treeArg(name string, ss *sourceStore, obj object.Object) (*sitter.Tree, []byte, object.Object) {
	proxy, ok := obj.(*object.Proxy)
	if !ok {
		return nil, nil, object.Errorf("%s: expected tree, got %s", name, obj.Type())
	}
	tree, ok := proxy.Interface().(*sitter.Tree)
	if !ok {
		return nil, nil, object.Errorf("%s: expected *sitter.Tree, got %T", name, proxy.Interface())
	}
	src, ok := ss.get(tree)
	if !ok {
		return nil, nil, object.Errorf("%s: tree was not parsed by this runtime", name)
	}
	return tree, src, nil
}

// query(tree, pattern) → [{capture: {type, text, line, col}}]
func makeQueryFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("query", 2, len(args))
		}
		tree, src, errObj := treeArg("query", ss, args[0])
		if errObj != nil {
			return errObj
		}
		pattern, err := toString(args[1])
		if err != nil {
			return object.Errorf("query: pattern: %v", err)
		}

		q, qErr := sitter.NewQuery([]byte(pattern), java.GetLanguage())
		if qErr != nil {
			return object.Errorf("query: invalid pattern: %v", qErr)
		}
		defer q.Close()

		cursor := sitter.NewQueryCursor()
		defer cursor.Close()
		cursor.Exec(q, tree.RootNode())

		var results []object.Object
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			match = cursor.FilterPredicates(match, src)
			if len(match.Captures) == 0 {
				continue
			}
			captures := make(map[string]object.Object, len(match.Captures))
			for _, c := range match.Captures {
				captures[q.CaptureNameForId(c.Index)] = nodeToMap(c.Node, src)
			}
			results = append(results, object.NewMap(captures))
		}
		return stringsOrEmpty(results)
	})
}

// java_types(tree) → [{package, name, kind, line}]
func makeJavaTypesFn(ss *sourceStore) *object.Builtin {
	return object.NewBuiltin("java_types", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("java_types", 1, len(args))
		}
		_, src, errObj := treeArg("java_types", ss, args[0])
		if errObj != nil {
			return errObj
		}
		sc := discover.NewScanner()
		defer sc.Close()
		types, err := sc.Scan(ctx, "<script>", src)
		if err != nil {
			return object.Errorf("java_types: %v", err)
		}
		var out []object.Object
		for _, t := range types {
			out = append(out, object.NewMap(map[string]object.Object{
				"package": object.NewString(t.Package),
				"name":    object.NewString(t.Name),
				"kind":    object.NewString(t.Kind.String()),
				"line":    object.NewInt(int64(t.Line)),
			}))
		}
		return stringsOrEmpty(out)
	})
}

func nodeToMap(n *sitter.Node, src []byte) object.Object {
	start := n.StartPoint()
	return object.NewMap(map[string]object.Object{
		"type": object.NewString(n.Type()),
		"text": object.NewString(n.Content(src)),
		"line": object.NewInt(int64(start.Row) + 1),
		"col":  object.NewInt(int64(start.Column) + 1),
	})
}
