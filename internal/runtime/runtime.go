// Package runtime runs Risor scripts against a finished class model. Scripts
// see the model through host functions (classes, class_info, resolve,
// upcasts, ...), may inspect Java sources with tree-sitter, and may query
// an exported store with db_query.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/jbind/internal/model"
	"github.com/jward/jbind/internal/store"
)

// Runtime embeds a Risor VM bound to one model.
type Runtime struct {
	model      *model.RootMap
	store      *store.Store
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
	sources    *sourceStore
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS loads scripts and resolves Risor imports from fsys instead of
// the scripts directory.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithScriptsDir sets the base directory for relative script paths and
// imports.
func WithScriptsDir(dir string) RuntimeOption {
	return func(r *Runtime) {
		r.scriptsDir = dir
	}
}

// WithStore exposes an exported model database to scripts via db_query.
func WithStore(s *store.Store) RuntimeOption {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithLogger routes the script `log` object to logger.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime over m. m may be nil, in which case the model
// functions report an error when called.
func NewRuntime(m *model.RootMap, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		model:   m,
		logger:  slog.Default(),
		sources: newSourceStore(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript evaluates the script at scriptPath against the model. Entries in
// extraGlobals are visible to the script and to anything it imports.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource is RunScript for source held in memory.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(extraGlobals)
	defer r.sources.closeAll()

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file from the configured fs.FS, or from disk
// relative to the scripts directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) && r.scriptsDir != "" {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"classes":    makeClassesFn(r.model),
		"class_info": makeClassInfoFn(r.model),
		"packages":   makePackagesFn(r.model),
		"resolve":    makeResolveFn(r.model),
		"upcasts":    makeUpcastsFn(r.model),
		"is_upcast":  makeIsUpcastFn(r.model),

		"parse_java": makeParseJavaFn(r.sources),
		"java_src":   makeJavaSrcFn(r.sources),
		"query":      makeQueryFn(r.sources),
		"java_types": makeJavaTypesFn(r.sources),

		"log": mustProxy(&logObject{logger: r.logger}),
	}
	if r.store != nil {
		globals["db_query"] = makeDBQueryFn(r.store)
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}

// logObject provides log.info/warn/error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "source", "script")
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "source", "script")
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "source", "script")
}
