// internal/pluginconfig/pluginconfig.go
//
// Settings provider backed by the platform's plugin config table.
//
// Context
// -------
// The platform stores every plugin setting as a row in `config_plugins`
// (plugin, name, value).  The rewriter needs two of them:
//
//   - enable_customcleanurl  "1" / "0"
//   - cleanurl_type          comma list, e.g. "define_url,course_url"
//
// Provider runs one query per Settings call, which the engine makes once
// per Resolve or Clean.  Rows that do not exist yet fall back to the
// plugin's install defaults: disabled, with define_url selected.
//
// Notes
// -----
//   - String keys are case-sensitive.
//   - The helper never logs; the engine wraps and reports errors.
//   - Oxford commas, two spaces after periods.
package pluginconfig

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/cleanurl/internal/rewrite"
)

// Plugin is the component name the settings are stored under.
const Plugin = "local_customcleanurl"

const (
	keyEnabled = "enable_customcleanurl"
	keyTypes   = "cleanurl_type"
)

// Defaults mirror the plugin's install-time values.
var Defaults = rewrite.Settings{
	Enabled:    false,
	Categories: []rewrite.Category{rewrite.DefineURL},
}

// Provider implements rewrite.SettingsProvider.
type Provider struct {
	db *sqlx.DB
	q  string
}

var _ rewrite.SettingsProvider = (*Provider)(nil)

// New returns a Provider reading `<prefix>config_plugins`.
func New(db *sqlx.DB, prefix string) *Provider {
	return &Provider{
		db: db,
		q: db.Rebind(`
	    SELECT  name, value
	    FROM    ` + prefix + `config_plugins
	    WHERE   plugin = ?
	      AND   name IN (?, ?)`),
	}
}

// Settings implements rewrite.SettingsProvider.
func (p *Provider) Settings(ctx context.Context) (rewrite.Settings, error) {
	rows := make([]struct {
		Name  string `db:"name"`
		Value string `db:"value"`
	}, 0, 2)

	if err := p.db.SelectContext(ctx, &rows, p.q, Plugin, keyEnabled, keyTypes); err != nil {
		return rewrite.Settings{}, fmt.Errorf("plugin config: %w", err)
	}

	kv := make(map[string]string, len(rows))
	for _, r := range rows {
		kv[r.Name] = r.Value
	}
	return FromMap(kv), nil
}

// FromMap builds Settings from raw key-value pairs, applying Defaults for
// missing keys.
func FromMap(kv map[string]string) rewrite.Settings {
	s := rewrite.Settings{
		Enabled:    Defaults.Enabled,
		Categories: append([]rewrite.Category(nil), Defaults.Categories...),
	}
	if v, ok := kv[keyEnabled]; ok {
		s.Enabled = v != "" && v != "0"
	}
	if v, ok := kv[keyTypes]; ok {
		s.Categories = rewrite.ParseCategories(v)
	}
	return s
}
