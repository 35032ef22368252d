package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spaza-link/combo-catalog/internal/config"
	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spaza-link/combo-catalog/internal/models"
	"github.com/spf13/cobra"
)

var (
	addFile    string
	updateFile string
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a combo from a JSON draft file",
	Long: `Create a combo on the remote catalog. The draft file carries name,
description, price, category, items, keywords and is_active; the server
assigns the id and timestamps. Requires a bearer token.`,
	Run: runAdd,
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a combo from a JSON draft file",
	Args:  cobra.ExactArgs(1),
	Run:   runUpdate,
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a combo",
	Args:  cobra.ExactArgs(1),
	Run:   runDelete,
}

// toggleCmd represents the toggle command
var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a combo's active status",
	Args:  cobra.ExactArgs(1),
	Run:   runToggle,
}

func init() {
	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "Path to the JSON draft (required)")
	addCmd.MarkFlagRequired("file")
	updateCmd.Flags().StringVarP(&updateFile, "file", "f", "", "Path to the JSON draft (required)")
	updateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(toggleCmd)
}

func setupWrite(args []string) (*config.Config, int) {
	logger.Initialize()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.AdminToken == "" {
		fmt.Fprintln(os.Stderr, "A bearer token is required: set --token or ADMIN_TOKEN")
		os.Exit(1)
	}

	id := 0
	if len(args) > 0 {
		id, err = strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid combo id %q\n", args[0])
			os.Exit(1)
		}
	}

	return cfg, id
}

func readDraft(path string) models.ComboDraft {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read draft file: %v\n", err)
		os.Exit(1)
	}

	var draft models.ComboDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse draft file: %v\n", err)
		os.Exit(1)
	}

	return draft
}

func runAdd(cmd *cobra.Command, args []string) {
	cfg, _ := setupWrite(nil)
	defer logger.Sync()

	draft := readDraft(addFile)

	svc := newService(cfg)
	created := svc.AddCombo(context.Background(), draft, cfg.AdminToken)
	if created == nil {
		fmt.Fprintln(os.Stderr, "Failed to create combo")
		os.Exit(1)
	}

	fmt.Printf("Created combo #%d %q\n", created.ID, created.Name)
}

func runUpdate(cmd *cobra.Command, args []string) {
	cfg, id := setupWrite(args)
	defer logger.Sync()

	draft := readDraft(updateFile)

	svc := newService(cfg)
	updated := svc.UpdateCombo(context.Background(), id, draft, cfg.AdminToken)
	if updated == nil {
		fmt.Fprintf(os.Stderr, "Failed to update combo #%d\n", id)
		os.Exit(1)
	}

	fmt.Printf("Updated combo #%d %q\n", updated.ID, updated.Name)
}

func runDelete(cmd *cobra.Command, args []string) {
	cfg, id := setupWrite(args)
	defer logger.Sync()

	svc := newService(cfg)
	if !svc.DeleteCombo(context.Background(), id, cfg.AdminToken) {
		fmt.Fprintf(os.Stderr, "Failed to delete combo #%d\n", id)
		os.Exit(1)
	}

	fmt.Printf("Deleted combo #%d\n", id)
}

func runToggle(cmd *cobra.Command, args []string) {
	cfg, id := setupWrite(args)
	defer logger.Sync()

	svc := newService(cfg)
	toggled := svc.ToggleComboStatus(context.Background(), id, cfg.AdminToken)
	if toggled == nil {
		fmt.Fprintf(os.Stderr, "Failed to toggle combo #%d\n", id)
		os.Exit(1)
	}

	state := "inactive"
	if toggled.IsActive {
		state = "active"
	}
	fmt.Printf("Combo #%d %q is now %s\n", toggled.ID, toggled.Name, state)
}
