package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spaza-link/combo-catalog/internal/models"
	"github.com/spf13/cobra"
)

var (
	listCategory string
	listMinPrice float64
	listMaxPrice float64
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List combos from the catalog",
	Run:   runList,
}

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only combos in this category")
	listCmd.Flags().Float64Var(&listMinPrice, "min-price", 0, "Lower price bound (inclusive)")
	listCmd.Flags().Float64Var(&listMaxPrice, "max-price", 0, "Upper price bound (inclusive)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) {
	logger.Initialize()
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	svc := newService(cfg)
	ctx := context.Background()

	var combos []models.Combo
	switch {
	case listCategory != "":
		combos = svc.CombosByCategory(ctx, listCategory)
	case listMaxPrice > 0:
		combos = svc.CombosByPriceRange(ctx, listMinPrice, listMaxPrice)
	default:
		list, err := svc.GetAllCombos(ctx, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch catalog: %v\n", err)
			os.Exit(1)
		}
		combos = list.Combos
	}

	if len(combos) == 0 {
		fmt.Println("No combos found")
		return
	}

	printCombos(combos)
}

func printCombos(combos []models.Combo) {
	for _, combo := range combos {
		display := models.FormatForDisplay(combo)

		status := ""
		if !display.IsActive {
			status = " [inactive]"
		}

		fmt.Printf("#%d %s — %s (%s)%s\n", display.ID, display.Name, display.Price, display.Category, status)
		if display.Description != "" {
			fmt.Printf("   %s\n", display.Description)
		}
		if len(display.Items) > 0 {
			fmt.Printf("   Items: %s\n", strings.Join(display.Items, ", "))
		}
		if display.Savings != "" {
			fmt.Printf("   %s\n", display.Savings)
		}
	}
}
