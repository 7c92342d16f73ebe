package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/jbind"
	"github.com/jward/jbind/internal/discover"
	"github.com/jward/jbind/internal/runtime"
)

// buildModel loads and builds a declaration file with a fresh Engine.
func buildModel(ctx context.Context, declPath string) (*jbind.Engine, *jbind.Model, error) {
	e, err := newEngine()
	if err != nil {
		return nil, nil, err
	}
	m, err := e.LoadModel(ctx, declPath)
	if err != nil {
		return nil, nil, err
	}
	return e, m, nil
}

// cmdContext returns the command's context, or Background when run outside
// Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func countResult(command string, results any, n int) CLIResult {
	return CLIResult{Command: command, Results: results, TotalCount: &n}
}

// --- reflect ---

var reflectCmd = &cobra.Command{
	Use:   "reflect <class>...",
	Short: "Print the public and protected surface of classes as javap reports it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReflect,
}

func runReflect(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return outputError("reflect", err)
	}
	ctx := cmdContext(cmd)

	classes := make([]CLIClass, 0, len(args))
	for _, name := range args {
		info, err := e.Reflect(ctx, name)
		if err != nil {
			return outputError("reflect", err)
		}
		classes = append(classes, classToCLI(info))
	}
	return outputResult(countResult("reflect", classes, len(classes)))
}

// --- resolve ---

var flagDecl string

var resolveCmd = &cobra.Command{
	Use:   "resolve <class[::member]>",
	Short: "Resolve a constructor or method selector",
	Long: "Resolves \"a.B\" to the unique constructor of a.B and \"a.B::m\" to the unique method m. " +
		"With --decl the selector is resolved against the declared model; otherwise javap is run directly.",
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&flagDecl, "decl", "", "declaration file to resolve against")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)

	var (
		method *jbind.ReflectedMethod
		err    error
	)
	if flagDecl != "" {
		var m *jbind.Model
		if _, m, err = buildModel(ctx, flagDecl); err != nil {
			return outputError("resolve", err)
		}
		method, err = jbind.NewQueryBuilder(m).Resolve(args[0])
	} else {
		var e *jbind.Engine
		if e, err = newEngine(); err != nil {
			return outputError("resolve", err)
		}
		method, err = e.ReflectMethod(ctx, args[0])
	}
	if err != nil {
		return outputError("resolve", err)
	}
	return outputResult(CLIResult{Command: "resolve", Results: memberToCLI(method)})
}

// --- model ---

var flagPackages bool

var modelCmd = &cobra.Command{
	Use:   "model <decl>",
	Short: "Build the class model of a declaration file",
	Args:  cobra.ExactArgs(1),
	RunE:  runModel,
}

func init() {
	modelCmd.Flags().BoolVar(&flagPackages, "packages", false, "list the package tree instead of classes")
}

func runModel(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	_, m, err := buildModel(ctx, args[0])
	if err != nil {
		return outputError("model", err)
	}
	q := jbind.NewQueryBuilder(m)

	if flagPackages {
		var pkgs []CLIPackage
		for _, p := range q.Packages() {
			pkgs = append(pkgs, CLIPackage{
				Path:    p.Path,
				Span:    p.Span.String(),
				Classes: dotIdsToStrings(p.Classes),
			})
		}
		return outputResult(countResult("model", pkgs, len(pkgs)))
	}

	var classes []CLIClass
	for _, c := range q.Classes() {
		classes = append(classes, classToCLI(c))
	}
	return outputResult(countResult("model", classes, len(classes)))
}

// --- hierarchy ---

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <decl> <class>",
	Short: "Show the supertypes and known subtypes of a declared class",
	Args:  cobra.ExactArgs(2),
	RunE:  runHierarchy,
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	_, m, err := buildModel(ctx, args[0])
	if err != nil {
		return outputError("hierarchy", err)
	}
	h := jbind.NewQueryBuilder(m).TypeHierarchy(args[1])
	if h == nil {
		return outputError("hierarchy", fmt.Errorf("class %q is not declared in %s", args[1], args[0]))
	}
	return outputResult(CLIResult{Command: "hierarchy", Results: CLIHierarchy{
		Class:      string(h.Class.Name),
		Extends:    dotIdsToStrings(h.Extends),
		Implements: dotIdsToStrings(h.Implements),
		Upcasts:    dotIdsToStrings(h.Upcasts),
		Subtypes:   dotIdsToStrings(h.Subtypes),
	}})
}

// --- export ---

var flagDB string

var exportCmd = &cobra.Command{
	Use:   "export <decl>",
	Short: "Write the class model of a declaration file to SQLite",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&flagDB, "db", "", "database path (default: <decl>.db next to the declaration file)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	e, m, err := buildModel(ctx, args[0])
	if err != nil {
		return outputError("export", err)
	}

	dbPath := flagDB
	if dbPath == "" {
		dbPath = defaultDBPath(args[0])
	}
	if err := e.Export(ctx, m, dbPath); err != nil {
		return outputError("export", err)
	}
	return outputResult(CLIResult{Command: "export", Results: CLIExport{
		Database: dbPath,
		Classes:  len(m.Classes),
		Packages: len(jbind.NewQueryBuilder(m).Packages()),
	}})
}

// defaultDBPath replaces the declaration file's extension with .db.
func defaultDBPath(declPath string) string {
	ext := filepath.Ext(declPath)
	return declPath[:len(declPath)-len(ext)] + ".db"
}

// --- discover ---

var flagOutput string

var discoverCmd = &cobra.Command{
	Use:   "discover [dir]",
	Short: "Find public Java types in a source tree",
	Long: "Scans .java files (honouring .gitignore) for public top-level types. " +
		"With --output, writes a declaration file requesting reflection of every type found.",
	Args: cobra.MaximumNArgs(1),
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write a declaration file to this path")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	types, err := discover.Classes(ctx, dir)
	if err != nil {
		return outputError("discover", err)
	}

	if flagOutput != "" {
		var buf bytes.Buffer
		if err := discover.Render(&buf, types); err != nil {
			return outputError("discover", err)
		}
		if err := os.WriteFile(flagOutput, buf.Bytes(), 0o644); err != nil {
			return outputError("discover", fmt.Errorf("writing %s: %w", flagOutput, err))
		}
	}

	found := make([]CLIDiscovered, 0, len(types))
	for _, t := range types {
		found = append(found, CLIDiscovered{
			Name: string(t.QualifiedName()),
			Kind: t.Kind.String(),
			File: t.File,
			Line: t.Line,
		})
	}
	return outputResult(countResult("discover", found, len(found)))
}

// --- script ---

var (
	flagScriptDB  string
	flagScriptDir string
)

var scriptCmd = &cobra.Command{
	Use:   "script <decl> <script.risor>",
	Short: "Run a Risor script against the class model of a declaration file",
	Args:  cobra.ExactArgs(2),
	RunE:  runScript,
}

func init() {
	scriptCmd.Flags().StringVar(&flagScriptDB, "db", "", "exported model database exposed to the script as db_query")
	scriptCmd.Flags().StringVar(&flagScriptDir, "scripts-dir", "", "directory for script imports (default: the script's directory)")
}

func runScript(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	_, m, err := buildModel(ctx, args[0])
	if err != nil {
		return outputError("script", err)
	}

	scriptsDir := flagScriptDir
	if scriptsDir == "" {
		scriptsDir = filepath.Dir(args[1])
	}
	opts := []runtime.RuntimeOption{
		runtime.WithScriptsDir(scriptsDir),
		runtime.WithLogger(newLogger()),
	}
	if flagScriptDB != "" {
		s, err := jbind.OpenStore(flagScriptDB)
		if err != nil {
			return outputError("script", err)
		}
		defer s.Close()
		opts = append(opts, runtime.WithStore(s))
	}

	scriptPath, err := filepath.Abs(args[1])
	if err != nil {
		return outputError("script", err)
	}
	rt := runtime.NewRuntime(m, opts...)
	if err := rt.RunScript(ctx, scriptPath, map[string]any{
		"decl_file": args[0],
	}); err != nil {
		return outputError("script", err)
	}
	return outputResult(CLIResult{Command: "script"})
}
