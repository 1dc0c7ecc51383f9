package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadence/internal/analysiscache"
	"cadence/internal/export"
	"cadence/internal/logging"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "export <audio-file> <output-json>",
		Short: "Detect beats and write them to a JSON document",
		Long: `Detect beats and downbeats in an audio file and write them, ordered by
time, to a JSON document. Detection runs in the configured backend; the write
is atomic, so a failed export never leaves a partial file behind.

Examples:
  cadence export song.wav song.beats.json
  cadence export --no-cache song.wav song.beats.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			backend, err := ctx.newBackend(cfg)
			if err != nil {
				return err
			}

			exporter := export.NewExporter(cfg, backend, logger)
			if cfg.Cache.Enabled && !noCache {
				cache, err := analysiscache.Open(cfg.Paths.CacheDir, logger)
				if err != nil {
					logger.Warn("analysis cache unavailable, detection will not be reused", logging.Error(err))
				} else {
					defer cache.Close()
					exporter.WithCache(cache)
				}
			}

			doc, err := exporter.Export(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d beats to %s (backend: %s)\n", len(doc.Beats), args[1], doc.Backend)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the detection result cache for this run")
	return cmd
}
