package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spaza-link/combo-catalog/internal/models"
	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single combo",
	Args:  cobra.ExactArgs(1),
	Run:   runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) {
	logger.Initialize()
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid combo id %q\n", args[0])
		os.Exit(1)
	}

	svc := newService(cfg)

	combo := svc.GetComboByID(context.Background(), id)
	if combo == nil {
		fmt.Fprintf(os.Stderr, "Combo #%d not found\n", id)
		os.Exit(1)
	}

	printCombos([]models.Combo{*combo})

	savings := models.CalculateSavings(*combo)
	fmt.Printf("   Components total R%.2f, bundle R%.2f (%.2f%%)\n",
		savings.OriginalPrice, combo.Price, savings.SavingsPercentage)
}
