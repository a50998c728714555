package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrissnell/bazi/internal/controllers/restserver"
	"github.com/chrissnell/bazi/internal/store"
	"github.com/chrissnell/bazi/pkg/bazi"
	"github.com/chrissnell/bazi/pkg/config"
	"github.com/chrissnell/bazi/pkg/shensha"
	"github.com/chrissnell/bazi/pkg/solarterm"
)

// App represents the main application
type App struct {
	config *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		config: cfg,
		logger: logger,
	}
}

// BuildEngine loads the solar term table and the shensha rule sets (with any
// on-disk overrides) and returns a configured engine
func BuildEngine(cfg *config.ConfigData, logger *zap.SugaredLogger) (*bazi.Engine, error) {
	table := solarterm.NewTable(solarterm.WithLogger(logger))
	table.Load()

	rules, err := shensha.LoadRegistry(cfg.Rules.Overrides())
	if err != nil {
		return nil, fmt.Errorf("loading shensha rule sets: %w", err)
	}
	for set, path := range cfg.Rules.Overrides() {
		logger.Infof("shensha rule set %s loaded from %s", set, path)
	}

	return bazi.NewEngine(
		bazi.WithSolarTermTable(table),
		bazi.WithRuleRegistry(rules),
		bazi.WithLogger(logger),
		bazi.WithStrict(cfg.Engine.Strict),
		bazi.WithBatchConcurrency(cfg.Engine.BatchConcurrency),
		bazi.WithDefaultRuleSet(cfg.Engine.DefaultRuleSet),
	)
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine, err := BuildEngine(a.config, a.logger)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, a.config.Storage, a.logger)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	ctrl, err := restserver.NewController(ctx, &wg, a.config.Server, engine, st, a.logger)
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	a.logger.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	a.logger.Info("waiting for the REST server to stop...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
