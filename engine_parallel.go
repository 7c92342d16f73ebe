package jbind

import (
	"context"

	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/model"
	"github.com/jward/jbind/internal/reflector"
)

// Prefetch reflects every class decl asks for using a worker pool, filling
// the Engine's cache. Declarations whose names cannot be qualified are
// skipped; BuildModel reports them. Every javap failure is collected and
// one of them is wrapped in the returned error.
func (e *Engine) Prefetch(ctx context.Context, decl *Declaration) error {
	return e.prefetch(ctx, decl).Err()
}

func (e *Engine) prefetch(ctx context.Context, decl *Declaration) reflector.Failures {
	reqs := reflectRequests(decl)
	if len(reqs) == 0 {
		return nil
	}
	e.logger.Debug("prefetching classes", "count", len(reqs), "workers", e.workers)
	return e.reflector.Prefetch(ctx, reqs, e.workers)
}

// reflectRequests lists the qualified names of decl's reflect requests in
// declaration order.
func reflectRequests(decl *Declaration) []reflector.Request {
	var reqs []reflector.Request
	for _, pkg := range decl.Packages {
		if len(pkg.Name) == 0 {
			continue
		}
		for _, c := range pkg.Classes {
			rc, ok := c.(*classinfo.ReflectedClass)
			if !ok {
				continue
			}
			name, err := model.AbsoluteName(pkg.Name, rc.Name, rc.Span)
			if err != nil {
				continue
			}
			reqs = append(reqs, reflector.Request{Name: name, Span: rc.Span})
		}
	}
	return reqs
}
