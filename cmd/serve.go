package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spaza-link/combo-catalog/internal/api"
	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spaza-link/combo-catalog/internal/models"
	"github.com/spaza-link/combo-catalog/internal/repo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the combo API from the local snapshot",
	Long: `Start a local combo catalog API backed by the snapshot database.

An empty database is seeded with the starter catalog so the server is
usable immediately. Write operations require the configured admin token.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	// Initialize logger
	logger.Initialize()
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Log.Fatal("Failed to create data directory", zap.Error(err))
	}

	// Initialize repository
	repository, err := repo.New(cfg.DBPath)
	if err != nil {
		logger.Log.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repository.Close()

	// Seed the starter catalog if the snapshot is empty
	count, err := repository.Count()
	if err != nil {
		logger.Log.Fatal("Failed to inspect snapshot", zap.Error(err))
	}
	if count == 0 {
		logger.Log.Info("Seeding starter catalog...")
		if err := repository.ReplaceAll(models.SeedCombos()); err != nil {
			logger.Log.Fatal("Failed to seed starter catalog", zap.Error(err))
		}
	}

	if cfg.AdminToken == "" {
		logger.Log.Warn("No admin token configured, write operations are disabled")
	}

	// Setup API handler
	handler := api.NewHandler(repository, cfg.AdminToken)
	router := handler.SetupRouter()

	// Create server
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Log.Info("🚀 Combo catalog server starting",
			zap.String("url", fmt.Sprintf("http://localhost%s", addr)),
			zap.String("combos", fmt.Sprintf("http://localhost%s/api/combos", addr)),
			zap.String("health", fmt.Sprintf("http://localhost%s/health", addr)),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server stopped")
}
