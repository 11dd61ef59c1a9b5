package cmd

import (
	"context"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/namelens/adlens/internal/observability"
	"github.com/namelens/adlens/internal/view"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the search backend is reachable",
	Long:  "Probe the backend health endpoint once and print the connection indicator.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addOutputFlags(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	controller := newController(cfg, newBackend(cfg), observability.CLILogger)
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Backend.Timeout)
	defer cancel()
	status := controller.Probe(ctx)

	if err := renderView(cmd, controller.View(), "status", isLegacy(cfg)); err != nil {
		return err
	}
	if status != view.StatusConnected {
		return withExitCode(foundry.ExitExternalServiceUnavailable, "backend unreachable", nil)
	}
	return nil
}
