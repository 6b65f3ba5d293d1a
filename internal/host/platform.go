// internal/host/platform.go
//
// Host-side registration of the active URL rewriter.
//
// Context
// -------
// The platform asks one object for every inbound resolve and outbound
// clean.  That object is registered at two lifecycle points, right after
// core configuration is loaded and again before HTTP headers are sent.
// Neither registration happens while the platform is being installed or
// upgraded, because the plugin tables may not exist yet.
//
// Workflow
// --------
//  1. cmd/web builds a rewrite.Engine and a Platform.
//  2. AfterConfig(engine) and BeforeHTTPHeaders(engine) call Initialize.
//  3. Hook re-runs BeforeHTTPHeaders per request; with Follow set the
//     install/upgrade flags are re-read from the live config each time.
//  4. Middleware and CleanLink read Active() per request.
//
// Notes
// -----
// • Active is an atomic pointer; reads are lock-free.
// • Oxford commas, two spaces after periods.

package host

import (
	"context"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurl/internal/rewrite"
)

// Rewriter is the two-method contract the platform consumes.
type Rewriter interface {
	Resolve(ctx context.Context, req rewrite.Request) (*rewrite.Result, bool, error)
	Clean(ctx context.Context, u *rewrite.URL) (*rewrite.URL, error)
}

var _ Rewriter = (*rewrite.Engine)(nil)

// State carries the platform flags the lifecycle guard checks.
type State struct {
	InitialInstall bool
	UpgradeRunning bool
}

// Platform holds the active rewriter for the process.
type Platform struct {
	state  atomic.Pointer[State]
	source atomic.Pointer[func() State]
	active atomic.Pointer[Rewriter]
}

// NewPlatform returns a Platform with no rewriter registered.
func NewPlatform(st State) *Platform {
	p := &Platform{}
	p.state.Store(&st)
	return p
}

// SetState replaces the install/upgrade flags.
func (p *Platform) SetState(st State) { p.state.Store(&st) }

// Follow makes every Initialize refresh the flags from src first, so a
// reloaded configuration reaches the guard without a restart.
func (p *Platform) Follow(src func() State) { p.source.Store(&src) }

func (p *Platform) currentState() State {
	if src := p.source.Load(); src != nil {
		p.SetState((*src)())
	}
	return *p.state.Load()
}

// Initialize registers r unless the platform is installing or upgrading,
// in which case any active rewriter is dropped.  It reports whether r is
// now active.
func (p *Platform) Initialize(r Rewriter) bool {
	st := p.currentState()
	if st.InitialInstall || st.UpgradeRunning {
		if p.active.Swap(nil) != nil {
			zap.L().Info("url rewriter deregistered for install or upgrade",
				zap.Bool("initial_install", st.InitialInstall),
				zap.Bool("upgrade_running", st.UpgradeRunning))
		}
		return false
	}
	p.active.Store(&r)
	return true
}

// AfterConfig is the hook run once core configuration is loaded.
func (p *Platform) AfterConfig(r Rewriter) bool { return p.Initialize(r) }

// BeforeHTTPHeaders is the hook run before response headers are sent.
func (p *Platform) BeforeHTTPHeaders(r Rewriter) bool { return p.Initialize(r) }

// Active returns the registered rewriter or nil.
func (p *Platform) Active() Rewriter {
	if r := p.active.Load(); r != nil {
		return *r
	}
	return nil
}

// Hook returns a middleware that runs BeforeHTTPHeaders with r on every
// request, so a changed upgrade flag takes effect without a restart.
func Hook(p *Platform, r Rewriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p.BeforeHTTPHeaders(r)
			next.ServeHTTP(w, req)
		})
	}
}
