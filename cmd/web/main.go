// cmd/web/main.go
//
// Clean-URL rewrite front, HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load config (conf/cleanurl.yaml → .env → CLEANURL_ env → Vault refs).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Open the platform DB and build the cached lookup service.
//
//  4. Pick the settings source: the config file (hot reloaded), or the
//     platform's plugin config table.
//
//  5. Build the rewrite engine with a collision guard rooted at the platform
//     install directory, and register it through the AfterConfig hook.  The
//     platform follows the live config, so flipping upgrade_running on disk
//     drops or restores the rewriter on the next request.
//
//  6. Serve: /metrics, /_cleanurl previews, and everything else through
//     rewrite → downstream (reverse proxy or JSON echo).
//
//  7. SIGHUP purges the lookup cache.  SIGINT / SIGTERM drain and exit.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurl/internal/config"
	"github.com/yanizio/cleanurl/internal/database"
	"github.com/yanizio/cleanurl/internal/host"
	"github.com/yanizio/cleanurl/internal/logger"
	"github.com/yanizio/cleanurl/internal/lookup"
	"github.com/yanizio/cleanurl/internal/pluginconfig"
	"github.com/yanizio/cleanurl/internal/rewrite"
	"github.com/yanizio/cleanurl/internal/server"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Config ──────────────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	logOut, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 3.  Platform DB and lookups ─────────────────────────────────────
	//
	db, err := database.OpenWithOptions(ctx, cfg.Database.Driver, cfg.Database.ResolvedDSN(),
		database.Options{MaxOpen: cfg.Database.MaxOpen, MaxIdle: cfg.Database.MaxIdle})
	if err != nil {
		logOut.Fatalw("connect platform DB", "driver", cfg.Database.Driver, "err", err)
	}
	defer db.Close()

	store := lookup.NewStore(db, cfg.Database.Prefix)
	svc := lookup.NewCached(store, cfg.Cache.TTL, cfg.Cache.Size)

	//
	// ── 4.  Settings source ─────────────────────────────────────────────
	//
	var settings rewrite.SettingsProvider = config.LiveSettings{}
	if cfg.CleanURL.Source == "database" {
		settings = pluginconfig.New(db, cfg.Database.Prefix)
	}
	if err := config.Watch(ctx, cfg.Paths.Root, nil); err != nil {
		logOut.Warnw("config hot reload unavailable", "err", err)
	}
	logOut.Infow("url rewriter settings", "source", cfg.CleanURL.Source)

	//
	// ── 5.  Engine and lifecycle hooks ──────────────────────────────────
	//
	engine := rewrite.NewEngine(settings, svc, rewrite.FSGuard{Root: os.DirFS(cfg.Platform.DirRoot)})
	platform := host.NewPlatform(host.State{
		InitialInstall: cfg.Platform.InitialInstall,
		UpgradeRunning: cfg.Platform.UpgradeRunning,
	})
	platform.Follow(config.HostState)
	if !platform.AfterConfig(engine) {
		logOut.Warnw("url rewriter inactive until install or upgrade completes")
	}

	//
	// ── 6.  HTTP ────────────────────────────────────────────────────────
	//
	downstream, err := server.Downstream(cfg.HTTP.Upstream)
	if err != nil {
		logOut.Fatalw("downstream", "err", err)
	}
	srv := server.New(cfg.HTTP.ListenAddr, server.NewRouter(platform, engine, downstream), server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	go purgeOnHUP(ctx, svc)

	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr, "upstream", cfg.HTTP.Upstream)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logOut.Fatalw("http server", "err", err)
		}
	}()

	//
	// ── 7.  Shutdown ────────────────────────────────────────────────────
	//
	<-ctx.Done()
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logOut.Warnw("http shutdown", "err", err)
	}
	logOut.Info("bye")
}

// purgeOnHUP drops cached lookups on SIGHUP so edited mappings apply at once.
func purgeOnHUP(ctx context.Context, svc lookup.Service) {
	c, ok := svc.(*lookup.Cached)
	if !ok {
		return
	}
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			c.Purge()
			zap.L().Info("lookup cache purged")
		}
	}
}
