// internal/rewrite/engine.go
//
// Engine binds a SettingsProvider, a lookup.Service, and a Guard into the
// two-method rewriter the host registers.  Each call reads settings once,
// builds a fresh Resolver or Cleaner, and records the outcome.

package rewrite

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurl/internal/lookup"
	"github.com/yanizio/cleanurl/internal/metrics"
)

// Engine is safe for concurrent use when its collaborators are.
type Engine struct {
	settings SettingsProvider
	svc      lookup.Service
	guard    Guard
}

// NewEngine returns an Engine.  A nil guard allows every candidate.
func NewEngine(settings SettingsProvider, svc lookup.Service, guard Guard) *Engine {
	if guard == nil {
		guard = AllowAll
	}
	return &Engine{settings: settings, svc: svc, guard: guard}
}

// Resolve maps an inbound request to its canonical URL.
func (e *Engine) Resolve(ctx context.Context, req Request) (*Result, bool, error) {
	s, err := e.settings.Settings(ctx)
	if err != nil {
		metrics.ResolveTotal.WithLabelValues("", "error").Inc()
		return nil, false, fmt.Errorf("load settings: %w", err)
	}
	if !s.Enabled {
		metrics.ResolveTotal.WithLabelValues("", "disabled").Inc()
		return nil, false, nil
	}

	res, ok, err := NewResolver(s, e.svc).Resolve(ctx, req)
	switch {
	case errors.Is(err, ErrConflict):
		metrics.ConflictsTotal.Inc()
		metrics.ResolveTotal.WithLabelValues("", "conflict").Inc()
		return nil, false, err
	case err != nil:
		metrics.ResolveTotal.WithLabelValues("", "error").Inc()
		return nil, false, err
	case !ok:
		metrics.ResolveTotal.WithLabelValues("", "miss").Inc()
		return nil, false, nil
	}

	metrics.ResolveTotal.WithLabelValues(string(res.Category), "resolved").Inc()
	zap.L().Debug("clean url resolved",
		zap.String("from", req.Path),
		zap.String("to", res.URL.String()),
		zap.String("category", string(res.Category)))
	return res, true, nil
}

// Clean maps a canonical URL to its clean form.  On any error the input
// URL is returned alongside it so callers can still render a link.
func (e *Engine) Clean(ctx context.Context, u *URL) (*URL, error) {
	s, err := e.settings.Settings(ctx)
	if err != nil {
		metrics.CleanTotal.WithLabelValues("error").Inc()
		return u, fmt.Errorf("load settings: %w", err)
	}
	if !s.Enabled {
		metrics.CleanTotal.WithLabelValues("disabled").Inc()
		return u, nil
	}

	out, err := NewCleaner(s, e.svc, e.guard).Clean(ctx, u)
	switch {
	case err != nil:
		metrics.CleanTotal.WithLabelValues("error").Inc()
		return u, err
	case out == u:
		metrics.CleanTotal.WithLabelValues("unchanged").Inc()
	default:
		metrics.CleanTotal.WithLabelValues("cleaned").Inc()
		zap.L().Debug("clean url built",
			zap.String("from", u.String()),
			zap.String("to", out.Path))
	}
	return out, nil
}
