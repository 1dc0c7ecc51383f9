package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadence/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and external dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend:        %s\n", displayName(cfg.Detection.Backend))
			fmt.Fprintf(out, "Beats per bar:  %d\n", cfg.Detection.BeatsPerBar)
			fmt.Fprintf(out, "Frame rate:     %d fps\n", cfg.Detection.FPS)
			fmt.Fprintf(out, "Cache:          %s (%s)\n", enabledDisabled(cfg.Cache.Enabled), cfg.Paths.CacheDir)
			fmt.Fprintf(out, "Log directory:  %s\n", cfg.Paths.LogDir)
			fmt.Fprintln(out)

			statuses := deps.CheckBinaries(deps.Defaults(cfg))
			headers := []string{"Dependency", "Command", "Available", "Detail"}
			rows := make([][]string, len(statuses))
			for i, status := range statuses {
				rows[i] = []string{status.Name, status.Command, yesNo(status.Available), status.Detail}
			}
			fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}
}
