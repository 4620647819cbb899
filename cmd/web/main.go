// cmd/web/main.go
//
// Contact form service – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Load configuration (conf/global.yaml + CONTACT_ overrides).
//
//  3. Start daily rotating logger (tees to console when running in a TTY).
//
//  4. Load the form definition.  Resolve the CSRF key (Vault when
//     vault.csrf_secret is set, else form.csrf_secret, else ephemeral).
//
//  5. Build the submission recorders: structured log always, MySQL
//     archive when archive.dsn is set.
//
//  6. Build the session store; each visitor gets its own controller on
//     first hit.
//
//  7. Mount routes:
//
//     • /contact                 – form API (components/contact)
//     • /metrics                 – Prometheus
//     • /healthz                 – liveness
//     • /debug/submissions       – recent payloads (debug.enabled only)
//
//  8. Serve until SIGINT/SIGTERM, then drain in-flight requests and close
//     every session.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/components/contact"
	"github.com/yanizio/contactform/internal/component"
	"github.com/yanizio/contactform/internal/config"
	"github.com/yanizio/contactform/internal/controller"
	"github.com/yanizio/contactform/internal/database"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/logger"
	"github.com/yanizio/contactform/internal/message"
	"github.com/yanizio/contactform/internal/middleware"
	"github.com/yanizio/contactform/internal/requestinfo"
	"github.com/yanizio/contactform/internal/server"
	"github.com/yanizio/contactform/internal/session"
	"github.com/yanizio/contactform/internal/vault"
	"github.com/yanizio/contactform/modules/debug"
)

const serverEnvPath = "/usr/local/etc/contactform/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logOut, err := logger.New(cfg.Log.Dir, cfg.Log.Level, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logOut); err != nil {
		logOut.Errorw("contact service stopped", "err", err)
		_ = logOut.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logOut *zap.SugaredLogger) error {
	//
	// ── 1.  Form engine ─────────────────────────────────────────────────
	//
	def, err := form.LoadDefinition(cfg.Form.Definition)
	if err != nil {
		return err
	}
	logOut.Infow("form definition loaded", "form", def.ID, "fields", len(def.Fields))

	secret, err := csrfSecret(ctx, cfg, logOut)
	if err != nil {
		return err
	}
	csrf, err := form.NewCSRF(secret, cfg.Form.CSRFMaxAge)
	if err != nil {
		return err
	}

	//
	// ── 2.  Recorders (log always, MySQL archive optional) ──────────────
	//
	history := message.NewLogRecorder(def.ID, nil, cfg.Form.History)
	recorders := message.Fanout{history}
	if cfg.Archive.DSN != "" {
		db, err := database.OpenWithOptions(ctx, cfg.Archive.DSN, cfg.Archive.MaxOpen, cfg.Archive.MaxIdle)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		recorders = append(recorders, message.NewSQLRecorder(db, def.ID))
		logOut.Info("submission archive online")
	}

	enricher, err := requestinfo.New(cfg.GeoIP.Database, logOut)
	if err != nil {
		return err
	}
	defer enricher.Close()

	//
	// ── 3.  Session store (one controller per visitor) ──────────────────
	//
	store := session.New(func(id string) (*controller.Controller, error) {
		return controller.New(def, controller.Options{
			View:          contact.NewLogView(id, logOut),
			Recorder:      recorders,
			Logger:        logOut.With("session", id),
			PendingDelay:  cfg.Form.PendingDelay,
			ResetDelay:    cfg.Form.ResetDelay,
			RecordTimeout: cfg.Form.RecordTimeout,
		}), nil
	}, session.Options{
		IdleTTL:       cfg.Session.IdleTTL,
		MaxEntries:    cfg.Session.MaxEntries,
		EvictInterval: cfg.Session.EvictInterval,
		Logger:        logOut,
	})
	defer func() { _ = store.Close() }()

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.AccessLog(logOut),
		chimw.Recoverer,
		middleware.Security,
		enricher.Middleware,
	)

	component.Mount(r, logOut, contact.New(store, csrf, logOut))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if cfg.Debug.Enabled {
		r.Get("/debug/submissions", debug.Handler(history, store))
		logOut.Warn("debug endpoints enabled")
	}

	var root http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		root = middleware.ForceHTTPS(r)
	}

	//
	// ── 5.  Serve until signalled ───────────────────────────────────────
	//
	return server.Run(ctx, server.New(cfg.HTTP, root), nil, cfg.HTTP.ShutdownTimeout, logOut)
}

// csrfSecret resolves the CSRF signing key.  Vault wins over the config
// value; an empty result makes form.NewCSRF generate an ephemeral key.
func csrfSecret(ctx context.Context, cfg *config.Config, logOut *zap.SugaredLogger) (string, error) {
	if cfg.Vault.CSRFSecret == "" {
		if cfg.Form.CSRFSecret == "" {
			logOut.Warn("no CSRF secret configured; tokens will not survive a restart")
		}
		return cfg.Form.CSRFSecret, nil
	}

	path, key, err := vault.ParseRef(cfg.Vault.CSRFSecret)
	if err != nil {
		return "", err
	}
	cli, err := vault.New(ctx, logOut)
	if err != nil {
		return "", err
	}
	secret, err := cli.GetKV(ctx, path, key, time.Hour)
	if err != nil {
		return "", err
	}
	logOut.Infow("csrf secret loaded from vault", "path", path)
	return secret, nil
}
