package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spf13/cobra"
)

var popularLimit int

// popularCmd represents the popular command
var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "Show the most popular combos",
	Long: `Show the top active combos ranked by price descending. This stands in
for popularity until a real order signal is available.`,
	Run: runPopular,
}

func init() {
	popularCmd.Flags().IntVarP(&popularLimit, "limit", "n", 6, "Number of combos to show")
	rootCmd.AddCommand(popularCmd)
}

func runPopular(cmd *cobra.Command, args []string) {
	logger.Initialize()
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	svc := newService(cfg)

	combos := svc.PopularCombos(context.Background(), popularLimit)
	if len(combos) == 0 {
		fmt.Println("No combos found")
		return
	}

	printCombos(combos)
}
