package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadence/internal/analysiscache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Detection result cache maintenance",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cached detection result count",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, cleanup, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			count, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cached results: %d (%s)\n", count, cache.Path())
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached detection results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, cleanup, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cache.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			return nil
		},
	})

	return cacheCmd
}

func openCache(ctx *commandContext) (*analysiscache.Cache, func(), error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := ctx.newLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logging: %w", err)
	}
	cache, err := analysiscache.Open(cfg.Paths.CacheDir, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open analysis cache: %w", err)
	}
	return cache, func() { _ = cache.Close() }, nil
}
