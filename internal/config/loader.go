// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/cleanurl.yaml`.
  3. Environment variables prefixed `CLEANURL_`, where `__` maps to “.”
     (e.g., `CLEANURL_CACHE__TTL → cache.ttl`).

Values of the form `vault:<mount>/<path>#<key>` are then swapped for the
secret they name.  The Vault client is only created when at least one such
value exists, so local setups run without VAULT_ADDR.

After merging, the tree is unmarshalled over `Defaults()`, validated,
enriched with the runtime root path, and cached in an `atomic.Pointer` for
lock-free reads.  `Watch()` repeats the load when the YAML file changes.

Notes
-----
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/cleanurl/internal/host"
	"github.com/yanizio/cleanurl/internal/rewrite"
	"github.com/yanizio/cleanurl/internal/vault"
)

const (
	envPrefix   = "CLEANURL_"
	confFile    = "cleanurl.yaml"
	secretTTL   = 10 * time.Minute
	vaultPrefix = "vault:"
)

var current atomic.Pointer[Config]

// SecretSource resolves one key of a KV secret.  *vault.Client satisfies it.
type SecretSource interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// SecretFactory opens a SecretSource on first use.
type SecretFactory func(ctx context.Context) (SecretSource, error)

func defaultSecrets(ctx context.Context) (SecretSource, error) {
	return vault.New(ctx)
}

// bootSecrets is the process-wide Vault client, opened on first reference.
var bootSecrets = SharedSecrets(defaultSecrets)

// SharedSecrets wraps f so the first source it opens is returned to every
// later caller.  A failed open is not cached.
func SharedSecrets(f SecretFactory) SecretFactory {
	var (
		mu  sync.Mutex
		src SecretSource
	)
	return func(ctx context.Context) (SecretSource, error) {
		mu.Lock()
		defer mu.Unlock()
		if src != nil {
			return src, nil
		}
		s, err := f(ctx)
		if err != nil {
			return nil, err
		}
		src = s
		return src, nil
	}
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves CLEANURL_ROOT or climbs directories until
// conf/cleanurl.yaml is found.
func rootDir() string {
	if r := os.Getenv("CLEANURL_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", confFile)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, rootDir(), bootSecrets)
}

// LoadFrom is Load with an explicit root and secret factory.  A nil
// factory means the shared Vault client.
func LoadFrom(ctx context.Context, root string, secrets SecretFactory) (*Config, error) {
	if secrets == nil {
		secrets = bootSecrets
	}
	zap.S().Debugw("config root resolved", "root", root)

	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", confFile)
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("config env: %w", err)
	}

	if err := resolveSecrets(ctx, k, secrets); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	cfg.Paths.Root = root
	if cfg.Platform.DirRoot != "" && !filepath.IsAbs(cfg.Platform.DirRoot) {
		cfg.Platform.DirRoot = filepath.Join(root, cfg.Platform.DirRoot)
	}
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, fmt.Errorf("config validate: %w", err)
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"driver", cfg.Database.Driver,
		"dirroot", cfg.Platform.DirRoot,
		"settings_source", cfg.CleanURL.Source,
		"cache_ttl", cfg.Cache.TTL,
	)
	return &cfg, nil
}

/*──────────────────────────── secrets ─────────────────────────────────────*/

// resolveSecrets replaces every `vault:` string value in k.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, secrets SecretFactory) error {
	var src SecretSource
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !strings.HasPrefix(s, vaultPrefix) {
			continue
		}
		path, field, err := ParseSecretRef(s)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		if src == nil {
			if src, err = secrets(ctx); err != nil {
				return fmt.Errorf("config secrets: %w", err)
			}
		}
		plain, err := src.GetKV(ctx, path, field, secretTTL)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		if err := k.Set(key, plain); err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key, "path", path)
	}
	return nil
}

// ParseSecretRef splits “vault:<path>#<key>”.
func ParseSecretRef(ref string) (path, key string, err error) {
	rest := strings.TrimPrefix(ref, vaultPrefix)
	path, key, ok := strings.Cut(rest, "#")
	if !ok || path == "" || key == "" {
		return "", "", fmt.Errorf("bad secret reference %q, want vault:<path>#<key>", ref)
	}
	return path, key, nil
}

/*──────────────────────────── hot reload ──────────────────────────────────*/

// Watch reloads Config whenever cleanurl.yaml changes until ctx ends.  A
// reload that fails validation is logged and the previous Config stays.
// Secret sources are opened once and shared by every reload.  Only readers
// that call Get per use (LiveSettings, HostState) see the new values;
// the DB pool, listener, and logger keep their boot-time settings.
func Watch(ctx context.Context, root string, secrets SecretFactory) error {
	if secrets == nil {
		secrets = bootSecrets
	} else {
		secrets = SharedSecrets(secrets)
	}
	f := file.Provider(filepath.Join(root, "conf", confFile))
	err := f.Watch(func(_ interface{}, err error) {
		if err != nil {
			zap.S().Warnw("config watch error", "err", err)
			return
		}
		if _, err := LoadFrom(ctx, root, secrets); err != nil {
			zap.S().Warnw("config reload rejected, keeping previous", "err", err)
			return
		}
		zap.S().Infow("config reloaded", "root", root)
	})
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	go func() {
		<-ctx.Done()
		_ = f.Unwatch()
	}()
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the last loaded Config, or nil before the first Load.
func Get() *Config { return current.Load() }

// HostState reports the install/upgrade flags of the current Config.  It is
// meant for host.Platform.Follow.
func HostState() host.State {
	c := Get()
	if c == nil {
		return host.State{}
	}
	return host.State{
		InitialInstall: c.Platform.InitialInstall,
		UpgradeRunning: c.Platform.UpgradeRunning,
	}
}

// LiveSettings is a rewrite.SettingsProvider over the current Config, so
// cleanurl switches edited on disk apply without a restart.
type LiveSettings struct{}

var _ rewrite.SettingsProvider = LiveSettings{}

// Settings implements rewrite.SettingsProvider.
func (LiveSettings) Settings(context.Context) (rewrite.Settings, error) {
	c := Get()
	if c == nil {
		return rewrite.Settings{}, errors.New("config not loaded")
	}
	return c.CleanURL.Settings(), nil
}
