package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Run:   runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	logger.Initialize()
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	svc := newService(cfg)

	stats := svc.Statistics(context.Background())
	if stats == nil {
		fmt.Fprintln(os.Stderr, "Failed to fetch catalog statistics")
		os.Exit(1)
	}

	fmt.Printf("Combos:     %d total, %d active, %d inactive\n",
		stats.TotalCombos, stats.ActiveCombos, stats.InactiveCombos)
	fmt.Printf("Categories: %d (%s)\n", stats.CategoryCount, strings.Join(stats.Categories, ", "))
	fmt.Printf("Prices:     avg R%.2f, min R%.2f, max R%.2f, range R%.2f\n",
		stats.PriceStats.Average, stats.PriceStats.Minimum,
		stats.PriceStats.Maximum, stats.PriceStats.Range)
	if !stats.LastUpdated.IsZero() {
		fmt.Printf("Updated:    %s\n", stats.LastUpdated.Format("2006-01-02 15:04:05"))
	}
}
