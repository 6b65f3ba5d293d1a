// internal/config/model.go
//
// Typed configuration model for the clean-URL service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                            – dotenv values,
//   • `conf/cleanurl.yaml`                       – primary static file,
//   • `CLEANURL_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with `vault:` is resolved through the Vault
// client *before* unmarshalling, so the model never stores Vault URIs, only
// plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/yanizio/cleanurl/internal/lookup"
	"github.com/yanizio/cleanurl/internal/rewrite"
)

//
// HTTP section
//

// HTTP holds web-server tunables.  Upstream is the platform web server
// rewritten requests are proxied to; empty serves a JSON echo instead.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	Upstream     string        `koanf:"upstream"      validate:"omitempty,url"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
}

//
// Database section
//

// Database describes the platform database the lookups read from.
//
// `DSN` may carry one `%s` verb; the loader fills it with `Password`, which
// normally arrives from Vault, keeping credentials out of flat files.
type Database struct {
	Driver   string `koanf:"driver"    validate:"required,oneof=mysql postgres"`
	DSN      string `koanf:"dsn"       validate:"required"`
	Password string `koanf:"password"`
	Prefix   string `koanf:"prefix"`
	MaxOpen  int    `koanf:"max_open"  validate:"gte=0"`
	MaxIdle  int    `koanf:"max_idle"  validate:"gte=0"`
}

// ResolvedDSN returns DSN with Password substituted when it holds a verb.
func (d Database) ResolvedDSN() string {
	if strings.Contains(d.DSN, "%s") {
		return fmt.Sprintf(d.DSN, d.Password)
	}
	return d.DSN
}

//
// Platform section
//

// Platform describes the host installation.
type Platform struct {
	DirRoot        string `koanf:"dirroot"         validate:"required"`
	InitialInstall bool   `koanf:"initial_install"`
	UpgradeRunning bool   `koanf:"upgrade_running"`
}

//
// CleanURL section
//

// CleanURL holds the rewriter switches.  With Source "database" the
// switches are read per request from the platform's plugin config table
// and Enabled / Types here are ignored.
type CleanURL struct {
	Enabled bool     `koanf:"enabled"`
	Types   []string `koanf:"types"  validate:"dive,oneof=define_url course_url user_url"`
	Source  string   `koanf:"source" validate:"oneof=file database"`
}

// Settings converts the file-sourced switches.
func (c CleanURL) Settings() rewrite.Settings {
	return rewrite.Settings{
		Enabled:    c.Enabled,
		Categories: rewrite.ParseCategories(strings.Join(c.Types, ",")),
	}
}

//
// Cache and Log sections
//

// Cache bounds lookup staleness.  TTL 0 disables caching.
type Cache struct {
	TTL  time.Duration `koanf:"ttl"  validate:"gte=0"`
	Size int           `koanf:"size" validate:"gte=0"`
}

// Log tunes the zap logger.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // CLEANURL_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Platform Platform `koanf:"platform"`
	CleanURL CleanURL `koanf:"cleanurl"`
	Cache    Cache    `koanf:"cache"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}

// Defaults returns the values used for keys absent from every layer.
func Defaults() Config {
	return Config{
		HTTP: HTTP{
			ListenAddr:   ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: Database{
			Driver:  "mysql",
			Prefix:  lookup.DefaultPrefix,
			MaxOpen: 15,
			MaxIdle: 5,
		},
		CleanURL: CleanURL{
			Types:  []string{string(rewrite.DefineURL)},
			Source: "file",
		},
		Cache: Cache{TTL: 30 * time.Second, Size: lookup.DefaultCacheSize},
		Log:   Log{Level: "info"},
	}
}
