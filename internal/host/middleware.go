// internal/host/middleware.go
//
// Inbound rewrite middleware (chi compatible).
//
// Context
// -------
// The web server routes every path that is not a real file to the
// platform front controller.  Middleware asks the active rewriter whether
// the path is a clean URL and, on a match, points the request at the
// canonical script with the merged query.  Downstream handlers then see
// exactly what they would have seen for the canonical link.
//
// Outcomes
// --------
//   • no rewriter / no match  → next, request untouched
//   • match                   → next, r.URL.Path and RawQuery replaced
//   • parameter conflict      → 400 with the conflict message, next not run
//   • bad query escape        → WARN log, next, request untouched
//   • any other error         → WARN log, next, request untouched
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package host

import (
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurl/internal/rewrite"
)

// Middleware returns a platform-bound middleware that resolves clean paths.
func Middleware(p *Platform) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := p.Active()
			if rw == nil {
				next.ServeHTTP(w, r)
				return
			}

			params, err := rewrite.ParseParams(r.URL.RawQuery)
			if err != nil {
				zap.L().Warn("clean url query unparsable",
					zap.String("path", r.URL.EscapedPath()), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			req := rewrite.Request{Path: r.URL.EscapedPath(), Params: params}

			res, ok, err := rw.Resolve(r.Context(), req)
			var conflict *rewrite.ConflictError
			switch {
			case errors.As(err, &conflict):
				zap.L().Info("clean url parameter conflict",
					zap.String("path", req.Path),
					zap.String("param", conflict.Param))
				http.Error(w, conflict.Error(), http.StatusBadRequest)
				return
			case err != nil:
				zap.L().Warn("clean url resolve failed",
					zap.String("path", req.Path), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			case !ok:
				next.ServeHTTP(w, r)
				return
			}

			r2 := r.Clone(r.Context())
			r2.URL.Path, r2.URL.RawPath = res.URL.Path, ""
			if unesc, err := url.PathUnescape(res.URL.Path); err == nil && unesc != res.URL.Path {
				r2.URL.Path, r2.URL.RawPath = unesc, res.URL.Path
			}
			r2.URL.RawQuery = res.Params.Encode()
			r2.RequestURI = r2.URL.RequestURI()

			next.ServeHTTP(w, r2)
		})
	}
}
