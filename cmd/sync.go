package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spaza-link/combo-catalog/internal/repo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the remote catalog into the local snapshot",
	Long: `Fetch the full combo catalog from the remote API and replace the
local snapshot with it. The snapshot is what the serve command exposes.`,
	Run: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) {
	logger.Initialize()
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	svc := newService(cfg)

	// Bypass the cache: a sync must capture current server state
	list, err := svc.GetAllCombos(context.Background(), false)
	if err != nil {
		logger.Log.Fatal("Failed to fetch remote catalog",
			zap.String("base_url", cfg.BaseURL),
			zap.Error(err),
		)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Log.Fatal("Failed to create data directory", zap.Error(err))
	}

	repository, err := repo.New(cfg.DBPath)
	if err != nil {
		logger.Log.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repository.Close()

	if err := repository.ReplaceAll(list.Combos); err != nil {
		logger.Log.Fatal("Failed to store snapshot", zap.Error(err))
	}

	if err := repository.RecordSync(cfg.BaseURL, len(list.Combos)); err != nil {
		logger.Log.Warn("Failed to record sync history", zap.Error(err))
	}

	logger.Log.Info("Catalog synced",
		zap.String("base_url", cfg.BaseURL),
		zap.Int("combos", len(list.Combos)),
		zap.String("db", cfg.DBPath),
	)
	fmt.Printf("Synced %d combos from %s\n", len(list.Combos), cfg.BaseURL)
}
