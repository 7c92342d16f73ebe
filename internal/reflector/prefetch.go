package reflector

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/jward/jbind/internal/classinfo"
)

// Request is one class to reflect and the declaration asking for it.
type Request struct {
	Name classinfo.DotId
	Span classinfo.Span
}

// Failures maps each class a Prefetch could not reflect to its error.
type Failures map[classinfo.DotId]error

// Err summarises f as one error wrapping the failure of the first class in
// name order, or nil when f is empty.
func (f Failures) Err() error {
	if len(f) == 0 {
		return nil
	}
	names := make([]classinfo.DotId, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	slices.Sort(names)
	return fmt.Errorf("prefetch had %d error(s): %w", len(f), f[names[0]])
}

// Prefetch reflects the requested classes with up to workers concurrent javap
// processes, filling the cache. workers <= 0 means one per CPU. Every failure
// is recorded against its class name.
func (r *Reflector) Prefetch(ctx context.Context, reqs []Request, workers int) Failures {
	var todo []Request
	seen := make(map[classinfo.DotId]bool, len(reqs))
	for _, req := range reqs {
		if seen[req.Name] || r.Cached(req.Name) {
			continue
		}
		seen[req.Name] = true
		todo = append(todo, req)
	}
	if len(todo) == 0 {
		return nil
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, len(todo)))

	workCh := make(chan Request, len(todo))
	for _, req := range todo {
		workCh <- req
	}
	close(workCh)

	var (
		mu       sync.Mutex
		failures = make(Failures)
		wg       sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range workCh {
				var err error
				if ctx.Err() != nil {
					err = r.interrupted(req.Name, req.Span, ctx.Err())
				} else {
					_, err = r.Reflect(ctx, req.Name, req.Span)
				}
				if err != nil {
					mu.Lock()
					failures[req.Name] = err
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if len(failures) > 0 {
		r.logger.Warn("prefetch failed", "classes", len(todo), "errors", len(failures))
		return failures
	}
	r.logger.Debug("prefetch done", "classes", len(todo), "workers", workers)
	return nil
}

// Settled is a view of a Reflector after a Prefetch: classes that failed
// report their recorded error, located at the new caller, instead of running
// javap again.
type Settled struct {
	r      *Reflector
	failed Failures
}

// Settled returns a view of r that replays failed.
func (r *Reflector) Settled(failed Failures) *Settled {
	return &Settled{r: r, failed: failed}
}

// Reflect is Reflector.Reflect, except for classes that already failed.
func (s *Settled) Reflect(ctx context.Context, name classinfo.DotId, span classinfo.Span) (*JavapClassInfo, error) {
	if err, ok := s.failed[name]; ok {
		return nil, relocate(err, span)
	}
	return s.r.Reflect(ctx, name, span)
}
