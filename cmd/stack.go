package cmd

import (
	"context"
	"fmt"

	"push-manager/core/catalog"
	"push-manager/core/config"
	"push-manager/core/database"
	"push-manager/core/kvstore"
	"push-manager/core/logger"
	"push-manager/core/provider"
	"push-manager/core/provider/onesignal"
	"push-manager/core/storage"
	"push-manager/feature/subscription"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stack bundles the dependencies shared by the server and CLI commands.
type stack struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	store    kvstore.Store
	storage  storage.Client
	catalogs *catalog.Cache
	provider *onesignal.Client
}

// newStack loads configuration and connects every dependency. The
// database is optional: without it selections live in memory only.
func newStack(logCfg *logger.Config) (*stack, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logCfg != nil {
		cfg.Log = *logCfg
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt := &stack{cfg: cfg, logger: l}

	if conn, err := database.Connect(cfg.Database); err != nil {
		l.Warn("Optional database connection failed, using in-memory store", zap.Error(err))
		rt.store = kvstore.NewMemory()
	} else {
		gs := kvstore.NewGormStore(conn)
		if err := gs.Migrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate key/value store: %w", err)
		}
		rt.db = conn
		rt.store = gs
		l.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	rt.storage = client

	// The catalog is fixed for the process lifetime.
	rt.catalogs = catalog.NewCache(client, cfg.Storage.Bucket, cfg.Storage.CatalogObject, 0)
	if cat, err := rt.catalogs.Get(context.Background()); err != nil {
		l.Warn("Failed to load catalog override, using built-in catalog", zap.Error(err))
		rt.catalogs.Seed(catalog.Default())
	} else {
		l.Info("Catalog loaded", zap.Strings("categories", cat.IDs()))
	}

	rt.provider = onesignal.NewClient(cfg.Provider)
	if !rt.provider.Configured() {
		l.Warn("Push provider is not configured, sessions will start in the failed state")
	}

	return rt, nil
}

// subscriptions creates the session service backed by the runtime.
func (rt *stack) subscriptions() *subscription.Service {
	factory := func(externalID string) provider.Provider {
		return rt.provider.Session(externalID)
	}
	return subscription.NewService(factory, rt.store, rt.catalogs, rt.cfg.Reconcile, rt.logger)
}
