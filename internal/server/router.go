// internal/server/router.go
//
// Root router for the rewrite front.
//
// Context
// -------
// Every request that is not an operational endpoint goes through the
// lifecycle hook, then the inbound rewrite middleware, then downstream.
// Downstream is a reverse proxy to the platform web server when an upstream
// is configured, or the JSON echo otherwise.
//
// Routes
// ------
//   • /metrics               – Prometheus exposition
//   • /_cleanurl/clean       – outbound clean preview
//   • /_cleanurl/resolve     – inbound resolve preview
//   • /*                     – hook → rewrite → downstream
//
// Notes
// -----
// • Operational routes skip Middleware so they never hit the lookup tables.
// • Oxford commas, two spaces after periods.

package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/cleanurl/internal/host"
)

// NewRouter wires p and rw in front of downstream.
func NewRouter(p *host.Platform, rw host.Rewriter, downstream http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(host.Hook(p, rw))

	r.Handle("/metrics", promhttp.Handler())
	r.Route("/_cleanurl", func(r chi.Router) {
		r.Get("/clean", host.CleanHandler(p))
		r.Get("/resolve", host.ResolveHandler(p))
	})

	r.Group(func(r chi.Router) {
		r.Use(host.Middleware(p))
		r.Handle("/*", downstream)
	})
	return r
}

// Downstream returns a reverse proxy to upstream, or host.Echo when
// upstream is empty.
func Downstream(upstream string) (http.Handler, error) {
	if upstream == "" {
		return http.HandlerFunc(host.Echo), nil
	}
	u, err := url.Parse(upstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream %q: want scheme://host", upstream)
	}

	proxy := httputil.NewSingleHostReverseProxy(u)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		zap.L().Warn("upstream request failed",
			zap.String("upstream", u.Host),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}
	return proxy, nil
}
