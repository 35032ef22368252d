package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spaza-link/combo-catalog/internal/cache"
	"github.com/spaza-link/combo-catalog/internal/combo"
	"github.com/spaza-link/combo-catalog/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL string
	dbPath  string
	token   string
	port    int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "combocat",
	Short: "Combo Catalog - bundled-deal tooling for spaza resellers",
	Long: `Combo Catalog is a client and local server for the combo specials API.

It can browse, search and manage the remote catalog, pull a snapshot
into a local database, and serve that snapshot as a drop-in combo API
for offline or demo use.`,
}

// Execute runs the root command
func Execute() {
	// Pull in a .env file when present; real env vars win
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&baseURL, "base-url", "u", "", "Combo API base URL (default from COMBO_API_URL)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Snapshot database path (default from DB_PATH)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "Bearer token for write operations (default from ADMIN_TOKEN)")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "Server port for the serve command (default from PORT)")
}

// loadConfig reads the environment config and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if token != "" {
		cfg.AdminToken = token
	}
	if port != 0 {
		cfg.Port = port
	}

	return cfg, nil
}

// newService builds the catalog client from the configuration
func newService(cfg *config.Config) *combo.Service {
	store := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL)
	return combo.NewService(cfg.BaseURL, store)
}
