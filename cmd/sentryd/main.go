package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sentrychat/message-security/internal/adapters/httpapi"
	"github.com/sentrychat/message-security/internal/adapters/storage"
	"github.com/sentrychat/message-security/internal/adapters/vtclient"
	"github.com/sentrychat/message-security/internal/adapters/ws"
	"github.com/sentrychat/message-security/internal/application"
	"github.com/sentrychat/message-security/internal/config"
	"github.com/sentrychat/message-security/internal/domain"
	"github.com/sentrychat/message-security/internal/domain/detection"
	"github.com/sentrychat/message-security/internal/ledger"
	"github.com/sentrychat/message-security/internal/ports"
	"github.com/sentrychat/message-security/internal/reputation"
)

// offlineReputation stands in when no reputation endpoint is configured.
// Everything resolves clean, matching the fail-open contract.
type offlineReputation struct{}

func (offlineReputation) Lookup(context.Context, string) (bool, error) {
	return false, nil
}

// lateTransport breaks the construction cycle between the pipeline and the
// hub. The hub field is set before the pipeline starts.
type lateTransport struct {
	hub *ws.Hub
}

func (t *lateTransport) Deliver(msg *domain.Message) error {
	return t.hub.Deliver(msg)
}

func (t *lateTransport) Reject(msg *domain.Message, reason string) error {
	return t.hub.Reject(msg, reason)
}

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting message security service", "addr", cfg.Addr, "env", cfg.Env)

	// Settings store is optional: without a database the service runs with
	// defaults and loses the ledger on restart.
	var store ports.SettingsStore
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("database unreachable, continuing with defaults", "error", err)
		} else if err := pg.InitSchema(); err != nil {
			logger.Warn("schema init failed, continuing with defaults", "error", err)
			pg.Close()
		} else {
			store = pg
			defer pg.Close()
		}
	}

	secCfg := domain.DefaultSecurityConfig()
	if store != nil {
		loaded, err := store.LoadConfig(context.Background())
		if err != nil {
			logger.Warn("failed to load stored config, using defaults", "error", err)
		} else {
			secCfg = loaded
		}
	}

	lexicon := detection.DefaultLexicon()
	if cfg.LexiconPath != "" {
		loaded, err := detection.LoadLexicon(cfg.LexiconPath, logger)
		if err != nil {
			logger.Warn("failed to load lexicon, using built-in defaults",
				"path", cfg.LexiconPath, "error", err)
		} else {
			lexicon = loaded
			logger.Info("lexicon loaded", "path", cfg.LexiconPath, "version", lexicon.Version)
		}
	}
	scanner := detection.NewScanner(lexicon)

	var svc ports.ReputationService
	if cfg.ReputationURL != "" {
		svc = vtclient.NewClient(cfg.ReputationURL,
			vtclient.WithAPIKey(cfg.ReputationAPIKey),
			vtclient.WithTimeout(cfg.ReputationTimeout))
	} else {
		logger.Warn("no reputation endpoint configured, url lookups resolve clean")
		svc = offlineReputation{}
	}
	cache := reputation.NewCache(secCfg.ReputationCap, secCfg.ReputationTTL)
	checker := reputation.NewChecker(cache, svc, logger)

	auditLog := ledger.New(secCfg.MaxLedgerEntries)
	if store != nil {
		entries, err := store.LoadLedger(context.Background())
		if err != nil {
			logger.Warn("failed to restore ledger snapshot", "error", err)
		} else if len(entries) > 0 {
			auditLog.Restore(entries)
			logger.Info("ledger snapshot restored", "entries", len(entries))
		}
	}

	transport := &lateTransport{}
	pipeline := application.NewPipeline(scanner, checker, auditLog, transport, secCfg, logger)
	hub := ws.NewHub(pipeline, logger)
	transport.hub = hub
	go hub.Run()
	pipeline.Start()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	httpapi.NewHandlers(pipeline, auditLog, cache, checker, hub, logger).Register(app)

	go func() {
		if err := app.Listen(cfg.Addr); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("listening", "addr", cfg.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		logger.Warn("server shutdown error", "error", err)
	}
	pipeline.Stop()

	if store != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.SaveConfig(saveCtx, pipeline.Config()); err != nil {
			logger.Warn("failed to persist config", "error", err)
		}
		if err := store.SaveLedger(saveCtx, auditLog.Snapshot()); err != nil {
			logger.Warn("failed to persist ledger snapshot", "error", err)
		}
	}
	logger.Info("stopped")
}
