package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spf13/cobra"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the combo API is reachable",
	Run:   runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) {
	logger.Initialize()
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	svc := newService(cfg)

	if svc.HealthCheck(context.Background()) {
		fmt.Printf("%s is healthy\n", cfg.BaseURL)
		return
	}

	fmt.Fprintf(os.Stderr, "%s is not responding\n", cfg.BaseURL)
	os.Exit(1)
}
