package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/services"
	"cadence/internal/services/librosa"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var onsets bool

	cmd := &cobra.Command{
		Use:   "detect <audio-file>",
		Short: "Detect beats and print them without writing a document",
		Long: `Run the configured detection backend against an audio file and print the
events. Useful for comparing backends and inspecting a track before export.

Examples:
  cadence detect song.wav
  cadence detect --json song.wav
  cadence detect --onsets song.wav`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if onsets {
				return runOnsetListing(cmd, ctx, args[0], asJSON)
			}

			backend, err := ctx.newBackend(cfg)
			if err != nil {
				return err
			}

			events, err := backend.Detect(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				type row struct {
					Time     float64 `json:"time"`
					Downbeat bool    `json:"downbeat"`
				}
				rows := make([]row, len(events))
				for i, ev := range events {
					rows[i] = row{Time: ev.Time, Downbeat: ev.Downbeat}
				}
				return writeJSON(cmd, rows)
			}

			headers := []string{"#", "Time (s)", "Downbeat"}
			rows := make([][]string, len(events))
			for i, ev := range events {
				rows[i] = []string{
					strconv.Itoa(i + 1),
					strconv.FormatFloat(ev.Time, 'f', 3, 64),
					yesNo(ev.Downbeat),
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backend: %s\n", displayName(backend.Name()))
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, []columnAlignment{alignRight, alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print events as JSON")
	cmd.Flags().BoolVar(&onsets, "onsets", false, "List onset times instead of beats (librosa)")
	return cmd
}

// runOnsetListing prints onset times. Only the librosa backend estimates
// onsets, so it is used regardless of the configured beat backend.
func runOnsetListing(cmd *cobra.Command, ctx *commandContext, audioPath string, asJSON bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	svc := librosa.NewService(cfg.UVXBinary())
	analysis, err := svc.Analyze(cmd.Context(), audioPath)
	if err != nil {
		return err
	}
	if len(analysis.Onsets) == 0 && len(analysis.Beats) == 0 {
		return services.Wrap(services.ErrDetection, "librosa", "onsets", "analysis produced no events", nil)
	}

	if asJSON {
		return writeJSON(cmd, analysis.Onsets)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Tempo: %.2f BPM\n", analysis.Tempo)
	headers := []string{"#", "Onset (s)"}
	rows := make([][]string, len(analysis.Onsets))
	for i, t := range analysis.Onsets {
		rows[i] = []string{strconv.Itoa(i + 1), strconv.FormatFloat(t, 'f', 3, 64)}
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, []columnAlignment{alignRight, alignRight}))
	return nil
}
