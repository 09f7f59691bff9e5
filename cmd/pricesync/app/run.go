package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sosanhsach/pricesync/internal/cachestore"
	"github.com/sosanhsach/pricesync/internal/config"
	"github.com/sosanhsach/pricesync/internal/logger"
	"github.com/sosanhsach/pricesync/internal/queue"
	"github.com/sosanhsach/pricesync/internal/sheet"
	"github.com/sosanhsach/pricesync/internal/syncer"
	"github.com/sosanhsach/pricesync/internal/vendor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the price sync worker",
	Long: `Start the worker loop. Configuration comes from PRICESYNC_* environment
variables, optionally overridden by a YAML settings file (--config). The
settings file is watched and hot-reloaded between cycles.`,
	RunE: runWorker,
}

func init() {
	runCmd.Flags().String("config", "", "Path to configuration file (YAML format, optional)")
	runCmd.Flags().String("env-file", "", "Path to a dotenv file loaded before reading configuration")

	if err := viper.BindPFlag("config", runCmd.Flags().Lookup("config")); err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}
	if err := viper.BindPFlag("env-file", runCmd.Flags().Lookup("env-file")); err != nil {
		logger.Fatalf("Failed to bind env-file flag: %v", err)
	}
}

func runWorker(_ *cobra.Command, _ []string) error {
	if envFile := viper.GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	configPath := viper.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Initialize(cfg.Debug || viper.GetBool("debug"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The relax-cell fallback delay tracks the live configuration when a
	// settings file is watched.
	cycleDelay := func() time.Duration { return cfg.CycleDelay }
	if configPath != "" {
		mgr, err := config.NewManager(configPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := mgr.Close(); err != nil {
				logger.Errorf("Failed to close config manager: %v", err)
			}
		}()
		go func() {
			if err := mgr.WatchConfig(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Config watcher stopped: %v", err)
			}
		}()
		cycleDelay = func() time.Duration { return mgr.GetConfig().CycleDelay }
	}

	store, err := cachestore.NewStore(cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}

	catalog := vendor.NewCatalogClient(
		vendor.NewHTTPClient(0, cfg.Origin),
		cfg.VendorAPIKey,
		store,
		cfg.CacheValid,
		vendor.WithBaseURL(cfg.VendorBaseURL),
		vendor.WithNotesDelay(cfg.NotesDelay),
	)

	sheetSvc, err := sheet.NewGoogleService(ctx, cfg.KeysPath)
	if err != nil {
		return fmt.Errorf("failed to create spreadsheet service: %w", err)
	}

	orchestrator := syncer.NewOrchestrator(
		queue.NewModel(sheetSvc),
		catalog,
		syncer.Settings{
			SheetID:        cfg.SheetID,
			SheetName:      cfg.SheetName,
			DataSheetName:  cfg.DataSheetName,
			DataStartIndex: cfg.DataStartIndex,
			RelaxCell:      cfg.RelaxCell,
			BatchSize:      cfg.BatchSize,
			BatchDelay:     cfg.BatchDelay,
			CycleDelay:     cfg.CycleDelay,
		},
	)

	logger.Infof("Starting price sync worker for sheet %s (%s)", cfg.SheetID, cfg.SheetName)

	supervisor := syncer.NewSupervisor(orchestrator, syncer.WithFallbackDelay(cycleDelay))
	if err := supervisor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("Worker shutdown complete")
	return nil
}
