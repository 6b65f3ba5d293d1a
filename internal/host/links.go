// internal/host/links.go
//
// Outbound link helpers.  Templates call {{ cleanurl .Ctx "/course/view.php?id=4" }}
// and Go code calls CleanLink; both fall back to the raw link on any error
// so a lookup failure never breaks page rendering.
package host

import (
	"context"
	"html/template"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurl/internal/rewrite"
)

// CleanLink returns the clean form of raw, or raw itself.
func CleanLink(ctx context.Context, p *Platform, raw string) string {
	rw := p.Active()
	if rw == nil {
		return raw
	}
	u, err := rewrite.ParseURL(raw)
	if err != nil {
		return raw
	}
	out, err := rw.Clean(ctx, u)
	if err != nil {
		zap.L().Warn("clean url failed", zap.String("url", raw), zap.Error(err))
		return raw
	}
	if out == u {
		return raw
	}
	return out.String()
}

// FuncMap returns template helpers bound to p.
func FuncMap(p *Platform) template.FuncMap {
	return template.FuncMap{
		"cleanurl": func(ctx context.Context, raw string) string {
			return CleanLink(ctx, p, raw)
		},
	}
}
