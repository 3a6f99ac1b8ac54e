// Package main is the entry point for the pressroom template server.
// It loads configuration, connects the selected template backend, sets up
// routing, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pquerna/otp/totp"

	"pressroom/internal/cache"
	"pressroom/internal/config"
	"pressroom/internal/database"
	"pressroom/internal/engine"
	"pressroom/internal/handlers"
	"pressroom/internal/project"
	"pressroom/internal/rendercache"
	"pressroom/internal/router"
	"pressroom/internal/store"
)

func main() {
	genTOTP := flag.Bool("gen-totp", false, "generate a TOTP secret for the admin API and exit")
	flag.Parse()

	if *genTOTP {
		if err := printTOTPSecret(); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger — JSON in production, text everywhere else.
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"backend", cfg.Backend,
	)

	// Open the template backend. Database backends also expose revision
	// history and the cache audit log.
	ctx := context.Background()
	var (
		proj          project.Store
		db            *sql.DB
		templateStore *store.TemplateStore
		revisionStore *store.RevisionStore
		cacheLogStore *store.CacheLogStore
	)

	switch cfg.Backend {
	case config.BackendMemory:
		proj = project.NewMem(nil)

	case config.BackendDir:
		proj = project.NewWritableDir(cfg.TemplateDir)
		slog.Info("template directory opened", "root", cfg.TemplateDir)

	case config.BackendS3:
		bucket, err := project.NewBucket(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			slog.Error("failed to open s3 backend", "error", err)
			os.Exit(1)
		}
		proj = bucket
		slog.Info("s3 backend connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)

	case config.BackendPostgres, config.BackendSQLite:
		dialect := "postgres"
		if cfg.Backend == config.BackendSQLite {
			dialect = "sqlite3"
			db, err = database.OpenSQLite(ctx, cfg.SQLitePath)
		} else {
			db, err = database.Connect(ctx, cfg.DSN())
		}
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(db, dialect); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		// Seed starter templates in development (no-op if any exist).
		if cfg.IsDev() {
			if err := database.Seed(ctx, db); err != nil {
				slog.Error("failed to seed database", "error", err)
				os.Exit(1)
			}
		}

		templateStore = store.NewTemplateStore(db)
		revisionStore = store.NewRevisionStore(db)
		cacheLogStore = store.NewCacheLogStore(db)
		proj = project.NewDB(templateStore)
	}

	// Connect to Valkey for the rendered-output cache. The server runs
	// without it; every render then executes the compiled template.
	var output *rendercache.OutputCache
	if valkeyClient, err := rendercache.Connect(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword); err != nil {
		slog.Warn("output cache disabled — valkey not reachable", "error", err)
	} else {
		defer valkeyClient.Close()
		output = rendercache.NewOutputCache(valkeyClient, cfg.OutputTTL)
	}

	// Assemble the template engine. A positive cache TTL bounds compiled
	// unit lifetime; the default keeps units until they are invalidated.
	engCfg := engine.Config{Project: proj}
	if cfg.CacheTTL > 0 {
		engCfg.Cache = cache.Expiring(cfg.CacheTTL, 0)
	}
	eng := engine.New(engCfg)

	// Create handler groups with their dependencies.
	publicHandlers := handlers.NewPublic(eng, output)
	adminHandlers := handlers.NewAdmin(eng, proj, templateStore, revisionStore, cacheLogStore, output, cfg.TOTPSecret)

	if cfg.TOTPSecret == "" {
		slog.Warn("admin API disabled — set PRESSROOM_TOTP_SECRET to enable it (run with -gen-totp to create one)")
	}

	// Set up the chi router with all middleware and routes.
	r := router.New(publicHandlers, adminHandlers, cfg.TOTPSecret)

	// Create the HTTP server with sensible timeouts. WriteTimeout must
	// accommodate large template renders on cold caches.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// printTOTPSecret generates a fresh TOTP secret and prints it with its
// otpauth enrollment URL.
func printTOTPSecret() error {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "pressroom",
		AccountName: "admin",
	})
	if err != nil {
		return err
	}
	fmt.Println("secret: ", key.Secret())
	fmt.Println("url:    ", key.URL())
	fmt.Println()
	fmt.Println("export PRESSROOM_TOTP_SECRET=" + key.Secret())
	return nil
}
