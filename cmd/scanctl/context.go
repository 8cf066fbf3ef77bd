package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scanvault/api/internal/client"
	"github.com/scanvault/api/internal/config"
	"github.com/scanvault/api/internal/logging"
	"github.com/scanvault/api/internal/service"
	"github.com/scanvault/api/internal/store"
)

// commandContext lazily builds the dependencies a command needs and
// releases them once the command returns.
type commandContext struct {
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
	rdb    *redis.Client
	store  store.JobStore
	vendor client.Vendor
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) ensureLogger() (*zap.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Server.Env)
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return logger, nil
}

func (c *commandContext) ensureStore() (store.JobStore, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	if cfg.Store.Backend != config.StoreBackendSQLite {
		c.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	var rdb redis.UniversalClient
	if c.rdb != nil {
		rdb = c.rdb
	}

	s, err := store.Open(&cfg.Store, rdb, logger)
	if err != nil {
		return nil, err
	}
	c.store = s
	return s, nil
}

func (c *commandContext) ensureVendor() (client.Vendor, error) {
	if c.vendor != nil {
		return c.vendor, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	kiri := client.NewKiriClient(&cfg.Kiri, logger)
	if !kiri.IsConfigured() {
		return nil, fmt.Errorf("KIRI_API_KEY is not configured")
	}
	c.vendor = kiri
	return kiri, nil
}

// reconciler builds a reconcile service without live listeners; CLI
// transitions are visible to the dashboard on its next read.
func (c *commandContext) reconciler() (*service.ReconcileService, error) {
	s, err := c.ensureStore()
	if err != nil {
		return nil, err
	}
	v, err := c.ensureVendor()
	if err != nil {
		return nil, err
	}
	return service.NewReconcileService(s, v, c.logger), nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
