package jbind

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/config"
	"github.com/jward/jbind/internal/javap"
	"github.com/jward/jbind/internal/model"
	"github.com/jward/jbind/internal/reflector"
	"github.com/jward/jbind/internal/store"
)

// Engine orchestrates the jbind pipeline: declaration loading, reflection
// through javap, model assembly and export. An Engine owns one reflection
// cache; models built by the same Engine share reflected bodies.
type Engine struct {
	cfg       *config.Config
	reflector *reflector.Reflector
	logger    *slog.Logger
	binary    string

	// useParallel prefetches reflect requests with a worker pool before the
	// sequential model build.
	useParallel bool
	workers     int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the Engine and its reflector.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithParallel controls concurrent reflection. When true (default),
// BuildModel runs javap for every reflect request up front using a worker
// pool, then assembles the model from the warm cache. Set to false to run
// javap one declaration at a time.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers bounds the number of concurrent javap processes. Zero or less
// means one per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithJavap overrides the javap executable derived from the configuration.
func WithJavap(path string) Option {
	return func(e *Engine) {
		e.binary = path
	}
}

// New creates an Engine. A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("jbind: %w", err)
	}

	e := &Engine{
		cfg:         cfg,
		logger:      slog.Default(),
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}

	rOpts := []reflector.Option{reflector.WithLogger(e.logger)}
	if e.binary != "" {
		rOpts = append(rOpts, reflector.WithBinary(e.binary))
	}
	e.reflector = reflector.New(cfg, rOpts...)
	return e, nil
}

// Config returns the configuration the Engine was created with.
func (e *Engine) Config() *Config {
	return e.cfg
}

// Invocations reports how many javap processes the Engine has started.
func (e *Engine) Invocations() int64 {
	return e.reflector.Invocations()
}

// ParseDeclarations parses declaration source. file is used in spans.
func ParseDeclarations(file, src string) (*Declaration, error) {
	return javap.ParseDeclarations(file, src)
}

// LoadDeclarations reads and parses a declaration file.
func LoadDeclarations(path string) (*Declaration, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jbind: read declarations: %w", err)
	}
	return javap.ParseDeclarations(path, string(src))
}

// BuildModel assembles decl into a Model, reflecting classes as needed. It
// stops at the first failing declaration; the returned *Error points at it.
func (e *Engine) BuildModel(ctx context.Context, decl *Declaration) (*Model, error) {
	start := time.Now()
	before := e.reflector.Invocations()

	var source model.Reflector = e.reflector
	if e.useParallel {
		// Failed classes are not run again; the build reports them in
		// declaration order.
		failed := e.prefetch(ctx, decl)
		if len(failed) > 0 {
			e.logger.Debug("prefetch incomplete", "failed", len(failed))
		}
		source = e.reflector.Settled(failed)
	}

	m, err := model.BuildRootMap(ctx, decl, source)
	if err != nil {
		return nil, err
	}

	e.logger.Info("model built",
		"classes", len(m.Classes),
		"javap_calls", e.reflector.Invocations()-before,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return m, nil
}

// LoadModel loads a declaration file and builds its Model.
func (e *Engine) LoadModel(ctx context.Context, path string) (*Model, error) {
	decl, err := LoadDeclarations(path)
	if err != nil {
		return nil, err
	}
	return e.BuildModel(ctx, decl)
}

// Reflect returns the public and protected surface of a single class,
// reading it from javap on first use.
func (e *Engine) Reflect(ctx context.Context, name string) (*ClassInfo, error) {
	info, err := e.reflector.Reflect(ctx, classinfo.DotId(name), classinfo.Span{})
	if err != nil {
		return nil, err
	}
	return info.ToClassInfo(classinfo.Span{}), nil
}

// ReflectMethod resolves a selector such as "java.lang.Thread" (the unique
// constructor) or "java.lang.Thread::start" (the unique method of that name)
// directly against javap output, without a declaration file.
func (e *Engine) ReflectMethod(ctx context.Context, selector string) (*ReflectedMethod, error) {
	sel, err := reflector.ParseSelector(selector, classinfo.Span{})
	if err != nil {
		return nil, err
	}
	return e.reflector.ReflectMethod(ctx, sel)
}

// Export writes m to a SQLite database at dbPath, replacing any previous
// export in that file.
func (e *Engine) Export(ctx context.Context, m *Model, dbPath string) error {
	s, err := OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Save(ctx, m); err != nil {
		return fmt.Errorf("jbind: export: %w", err)
	}
	meta := map[string]string{
		"exported_at": time.Now().UTC().Format(time.RFC3339),
		"class_count": strconv.Itoa(len(m.Classes)),
		"classpath":   e.cfg.Classpath,
	}
	for k, v := range meta {
		if err := s.SetMetadata(k, v); err != nil {
			return fmt.Errorf("jbind: export: %w", err)
		}
	}
	e.logger.Info("model exported", "db", dbPath, "classes", len(m.Classes))
	return nil
}

// OpenStore opens (creating if needed) an exported model database.
func OpenStore(dbPath string) (*Store, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("jbind: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("jbind: migrate: %w", err)
	}
	return s, nil
}
