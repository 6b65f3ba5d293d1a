// internal/host/inspect.go
//
// Debug handlers that echo rewrite decisions as JSON.
//
//   GET /_cleanurl/clean?url=/course/view.php?id=4
//   GET /_cleanurl/resolve?path=/course/cs101
//
// Echo is the demo downstream: it reports the request as the platform
// would see it after Middleware ran.
package host

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/yanizio/cleanurl/internal/rewrite"
)

// CleanHandler reports the clean form of the `url` query parameter.
func CleanHandler(p *Platform) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("url")
		if raw == "" {
			http.Error(w, "missing url parameter", http.StatusBadRequest)
			return
		}
		rw := p.Active()
		if rw == nil {
			http.Error(w, "url rewriter not active", http.StatusServiceUnavailable)
			return
		}
		u, err := rewrite.ParseURL(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		out, err := rw.Clean(r.Context(), u)
		if out == nil {
			out = u
		}
		body := map[string]any{
			"url":     raw,
			"clean":   out.String(),
			"changed": out != u,
		}
		if err != nil {
			body["error"] = err.Error()
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// ResolveHandler reports what the `path` query parameter resolves to.
func ResolveHandler(p *Platform) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("path")
		if raw == "" {
			http.Error(w, "missing path parameter", http.StatusBadRequest)
			return
		}
		rw := p.Active()
		if rw == nil {
			http.Error(w, "url rewriter not active", http.StatusServiceUnavailable)
			return
		}
		req, err := rewrite.ParseRequest(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, ok, err := rw.Resolve(r.Context(), req)
		body := map[string]any{"path": raw, "matched": ok}
		if ok {
			body["canonical"] = res.URL.String()
			body["category"] = res.Category
			body["query"] = res.Params.Encode()
		}
		status := http.StatusOK
		if err != nil {
			body["error"] = err.Error()
			if errors.Is(err, rewrite.ErrConflict) {
				status = http.StatusConflict
			}
		}
		writeJSON(w, status, body)
	}
}

// Echo writes the request path, query, remote IP, and user agent.
func Echo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"path":  r.URL.Path,
		"query": r.URL.RawQuery,
		"uri":   r.RequestURI,
		"ip":    clientIP(r),
		"ua":    r.UserAgent(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// clientIP grabs the remote address without port.
func clientIP(r *http.Request) string {
	h, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return h
}
