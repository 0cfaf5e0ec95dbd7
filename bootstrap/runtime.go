package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handler "github.com/raid-guild/x402-tip-links/api"
	"github.com/raid-guild/x402-tip-links/auth"
	"github.com/raid-guild/x402-tip-links/cache"
	"github.com/raid-guild/x402-tip-links/config"
	"github.com/raid-guild/x402-tip-links/core"
	"github.com/raid-guild/x402-tip-links/events"
	"github.com/raid-guild/x402-tip-links/storage"
	"github.com/raid-guild/x402-tip-links/types"
)

type Runtime struct {
	cfg        config.Config
	logger     *slog.Logger
	httpServer *http.Server
	hub        *events.Hub
	closers    []func() error
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	return newRuntime(ctx, cfg, logger)
}

func newRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{cfg: cfg, logger: logger}

	// Storage
	var (
		registry core.Registry
		ledger   core.Ledger
		authCfg  = auth.Config{StaticKey: cfg.StaticAPIKey}
	)
	if cfg.DatabaseURL != "" {
		db, err := storage.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		rt.closers = append(rt.closers, sqlDB.Close)

		if err := storage.RunMigrations(ctx, db); err != nil {
			rt.close()
			return nil, err
		}
		registry = storage.NewPostgresRegistry(db)
		ledger = storage.NewPostgresLedger(db)
		if cfg.APIKeysFromDB {
			authCfg.DB = sqlDB
		}
	} else {
		logger.Warn("DATABASE_URL is not set, tip links and settlements are kept in memory")
		registry = storage.NewMemoryRegistry()
		ledger = storage.NewMemoryLedger()
	}

	// Registry cache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.closers = append(rt.closers, client.Close)
		registry = cache.NewRegistryCache(registry, client, cfg.RegistryCache, logger)
	}

	// Events
	rt.hub = events.NewHub(logger)
	publishers := events.MultiPublisher{rt.hub}
	if len(cfg.KafkaBrokers) == 0 {
		publishers = append(publishers, events.NewLoggingPublisher(logger))
	} else {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			string(types.EventTypeTipSettled): cfg.KafkaTopicTipSettled,
		})
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.closers = append(rt.closers, kafka.Close)
		publishers = append(publishers, kafka)
	}

	requirements := core.RequirementsConfig{
		ChainID:           cfg.ChainID,
		Token:             cfg.TokenAddress,
		TokenDecimals:     cfg.TokenDecimals,
		TokenName:         cfg.TokenName,
		TokenVersion:      cfg.TokenVersion,
		MaxTimeoutSeconds: cfg.MaxTimeoutSeconds,
	}
	verifier := core.NewChainVerifier(core.VerifyTransferConfig{
		RPCURL:           cfg.RPCURL,
		MinConfirmations: cfg.MinConfirmations,
		Timeout:          cfg.VerifyTimeout,
		Attempts:         cfg.VerifyAttempts,
		Backoff:          cfg.VerifyBackoff,
	})
	negotiator := core.NewNegotiator(core.NegotiatorConfig{
		Requirements: requirements,
		TokenSymbol:  cfg.TokenSymbol,
	}, registry, ledger, verifier, publishers, logger)
	issuer := core.NewIssuer(registry, cfg.TokenDecimals)

	h := handler.NewHandler(handler.Config{
		PublicBaseURL: cfg.PublicBaseURL,
		Auth:          authCfg,
		Supported:     handler.SupportedKinds(cfg.ChainID, cfg.TokenAddress),
	}, issuer, negotiator, rt.hub, logger)

	rt.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return rt, nil
}

// Handler returns the HTTP handler of the runtime.
func (r *Runtime) Handler() http.Handler {
	return r.httpServer.Handler
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.close()
	errCh := make(chan error, 1)

	go func() {
		r.logger.Info("listening", "addr", r.httpServer.Addr, "chain_id", r.cfg.ChainID, "token", r.cfg.TokenAddress)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.hub.Close()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("http shutdown", "error", err)
	}
	return runErr
}

func (r *Runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("close dependency", "error", err)
		}
	}
	r.closers = nil
}
