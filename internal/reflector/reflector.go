// Package reflector reads class bodies out of compiled classes by running the
// JDK's javap tool, and resolves member selectors against them.
//
// Results are cached per qualified class name for the lifetime of a
// Reflector. The cache never stores a span: every lookup re-locates the cached
// body at the caller's declaration.
package reflector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/config"
	"github.com/jward/jbind/internal/diag"
	"github.com/jward/jbind/internal/javap"
)

// Reflector runs javap and caches what it learns. A Reflector is safe for
// concurrent use; concurrent requests for the same uncached class share one
// tool invocation, which is cancelled only once every waiting caller has
// given up.
type Reflector struct {
	bin       string
	classpath string
	timeout   time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	classes  map[classinfo.DotId]*JavapClassInfo
	inflight map[classinfo.DotId]*flight

	group       singleflight.Group
	invocations atomic.Int64
}

// flight is the context shared by every caller waiting on one javap run.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Option configures a Reflector.
type Option func(*Reflector)

// WithLogger sets the logger used for tool invocations and cache activity.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reflector) {
		r.logger = logger
	}
}

// WithBinary overrides the javap executable.
func WithBinary(path string) Option {
	return func(r *Reflector) {
		r.bin = path
	}
}

// New creates a Reflector with an empty cache. A nil cfg means
// config.Default().
func New(cfg *config.Config, opts ...Option) *Reflector {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Reflector{
		bin:       cfg.BinPath("javap"),
		classpath: cfg.Classpath,
		timeout:   cfg.Timeout,
		logger:    slog.Default(),
		classes:   make(map[classinfo.DotId]*JavapClassInfo),
		inflight:  make(map[classinfo.DotId]*flight),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reflect returns the body of the named class, running javap on a cache miss.
// Errors are located at span. A caller whose ctx ends stops waiting at once;
// the shared javap run keeps going while other callers still wait on it.
func (r *Reflector) Reflect(ctx context.Context, name classinfo.DotId, span classinfo.Span) (*JavapClassInfo, error) {
	if info, ok := r.cached(name); ok {
		r.logger.Debug("reflect cache hit", "class", name)
		return info, nil
	}

	f := r.join(ctx, name)
	defer r.leave(name, f)

	ch := r.group.DoChan(string(name), func() (any, error) {
		if info, ok := r.cached(name); ok {
			return info, nil
		}
		ci, err := r.run(f.ctx, name, span)
		if err != nil {
			return nil, err
		}
		return r.insert(name, FromClassInfo(ci.VisibleMembers())), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, relocate(res.Err, span)
		}
		return res.Val.(*JavapClassInfo), nil
	case <-ctx.Done():
		return nil, r.interrupted(name, span, ctx.Err())
	}
}

// join registers a caller waiting on name and returns the flight it shares.
// The flight's context outlives the caller's own cancellation.
func (r *Reflector) join(ctx context.Context, name classinfo.DotId) *flight {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.inflight[name]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		r.inflight[name] = f
	}
	f.waiters++
	return f
}

// leave drops a waiter. The last one out cancels the run and forgets the
// key, so a later caller starts afresh instead of joining a cancelled run.
func (r *Reflector) leave(name classinfo.DotId, f *flight) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if r.inflight[name] == f {
		delete(r.inflight, name)
	}
	r.group.Forget(string(name))
}

// Cached reports whether name has already been reflected.
func (r *Reflector) Cached(name classinfo.DotId) bool {
	_, ok := r.cached(name)
	return ok
}

// Invocations returns how many times javap has been started.
func (r *Reflector) Invocations() int64 {
	return r.invocations.Load()
}

func (r *Reflector) cached(name classinfo.DotId) (*JavapClassInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.classes[name]
	return info, ok
}

// insert stores info unless another entry won the race, and returns the
// stored entry.
func (r *Reflector) insert(name classinfo.DotId, info *JavapClassInfo) *JavapClassInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.classes[name]; ok {
		return existing
	}
	r.classes[name] = info
	return info
}

// Command returns the javap command line used for name.
func (r *Reflector) Command(name classinfo.DotId) []string {
	args := []string{r.bin}
	if r.classpath != "" {
		args = append(args, "-cp", r.classpath)
	}
	return append(args, "-p", string(name))
}

func (r *Reflector) run(ctx context.Context, name classinfo.DotId, span classinfo.Span) (*classinfo.ClassInfo, error) {
	argv := r.Command(name)
	cmdline := commandLine(argv)

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	r.invocations.Add(1)
	start := time.Now()
	err := cmd.Run()
	r.logger.Debug("javap", "class", name, "command", cmdline, "elapsed", time.Since(start), "err", err)

	toolErr := func(code diag.Code, cause error, format string, args ...any) error {
		return toolError(name, span, cmdline, code, cause, format, args...)
	}

	if err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, toolErr(diag.CodeToolTimeout, ctxErr, "`%s` did not finish within %s", cmdline, r.timeout)
			}
			return nil, r.interrupted(name, span, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// stderr that is not UTF-8 is reported as a bare marker.
			msg := "error"
			if b := stderr.Bytes(); utf8.Valid(b) {
				msg = string(bytes.TrimSpace(b))
			}
			return nil, toolErr(diag.CodeToolExit, err, "unsuccessful execution of `%s` (exit status: %d): %s",
				cmdline, exitErr.ExitCode(), msg)
		}
		return nil, toolErr(diag.CodeToolSpawn, err, "failed to execute `%s`: %v", cmdline, err)
	}

	if !utf8.Valid(stdout.Bytes()) {
		return nil, toolErr(diag.CodeToolEncoding, nil, "failed to parse output of `%s` as utf-8", cmdline)
	}
	return javap.ParseClass(stdout.String(), span)
}

func (r *Reflector) interrupted(name classinfo.DotId, span classinfo.Span, cause error) error {
	cmdline := commandLine(r.Command(name))
	return toolError(name, span, cmdline, diag.CodeToolExit, cause, "execution of `%s` was interrupted: %v", cmdline, cause)
}

func toolError(name classinfo.DotId, span classinfo.Span, cmdline string, code diag.Code, cause error, format string, args ...any) error {
	e := diag.Errorf(span, code, format, args...)
	e.Class = name
	e.Command = cmdline
	e.Err = cause
	return e
}

// relocate copies a located error so it points at span.
func relocate(err error, span classinfo.Span) error {
	var de *diag.Error
	if !errors.As(err, &de) || de.Span == span {
		return err
	}
	cp := *de
	cp.Span = span
	return &cp
}

func commandLine(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}
