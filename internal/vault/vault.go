// internal/vault/vault.go
//
// Vault client wrapper.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK for the one thing the rewriter needs
//     from it: reading database credentials referenced from cleanurl.yaml as
//     `vault:<mount>/<path>#<key>`.
//   - Adds background token renewal and per-key caching.
//   - Header block, section underlines, Oxford commas, two spaces after
//     periods, no m-dash.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx)                   // during config load.
//  2. pw,  err := cli.GetKV(ctx, path, key, ttl)   // per reference.
//
// Build tags: none.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api *vault.Client
	now func() time.Time

	cacheMu sync.RWMutex
	cache   map[string]cached // path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client from the environment and starts a background
// token-renewal loop bound to ctx.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token.
func New(ctx context.Context) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := newClient(apiCli)
	go c.renewLoop(ctx)

	zap.L().Info("vault client ready", zap.String("addr", cfg.Address))
	return c, nil
}

func newClient(api *vault.Client) *Client {
	return &Client{api: api, now: time.Now, cache: make(map[string]cached)}
}

// GetKV fetches a single string key from a KV-v2 secret.  With ttl > 0 the
// value is cached for that long.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		cv, ok := c.cache[canonical]
		c.cacheMu.RUnlock()
		if ok && c.now().Before(cv.exp) {
			return cv.val, nil
		}
	}

	mount, rel := splitMount(secretPath)
	if rel == "" {
		return "", fmt.Errorf("secret path %q has no key path after the mount", secretPath)
	}
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s is not a string", canonical)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: c.now().Add(ttl)}
		c.cacheMu.Unlock()
	}
	return sval, nil
}

//
// SECTION 2.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for ctx.Err() == nil {
		sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
		if err != nil {
			zap.L().Warn("vault token renew failed", zap.Error(err))
			backoff(ctx, 30*time.Second)
			continue
		}
		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			zap.L().Info("vault token not renewable, sleeping")
			backoff(ctx, time.Hour)
			continue
		}

		if err := c.watch(ctx, sec); err != nil {
			zap.L().Warn("vault token watcher stopped", zap.Error(err))
		}
		backoff(ctx, 15*time.Second)
	}
}

// watch runs one LifetimeWatcher until it finishes or ctx ends.
func (c *Client) watch(ctx context.Context, sec *vault.Secret) error {
	w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
		Secret: sec,
	})
	if err != nil {
		return fmt.Errorf("watcher init: %w", err)
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.DoneCh():
			return err
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				zap.L().Debug("vault token renewed",
					zap.Int("ttl_s", ev.Secret.Auth.LeaseDuration))
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(strings.Trim(p, "/"), "/")
	return mount, rel
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
