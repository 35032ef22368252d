package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spf13/cobra"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog",
	Long: `Search combos by name, category, keywords, description or item names.

Server-side search is used when available; when it returns nothing the
full catalog is ranked locally.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	logger.Initialize()
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	svc := newService(cfg)
	query := strings.Join(args, " ")

	results := svc.FuzzySearch(context.Background(), query)
	if len(results) == 0 {
		fmt.Printf("No combos matched %q\n", query)
		return
	}

	printCombos(results)
}
