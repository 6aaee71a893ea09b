package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mixdown/internal/analysis"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <project-id>",
		Short: "Extract energy profiles and phrase boundaries for every track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			tracks, err := store.ListTracks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(tracks) == 0 {
				return fmt.Errorf("project %s has no tracks", args[0])
			}

			analyzer := analysis.New(
				analysis.WithWorkers(cfg.Analysis.Workers),
				analysis.WithEnergyPoints(cfg.Analysis.EnergyPoints),
				analysis.WithLogger(ctx.ensureLogger()),
			)
			snapshot, err := analyzer.Analyze(cmd.Context(), args[0], tracks)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(snapshot.Tracks))
			for i, features := range snapshot.Tracks {
				status := "ok"
				if features.Degraded != nil {
					status = "degraded"
				}
				peak := 0.0
				for _, value := range features.Energy {
					if value > peak {
						peak = value
					}
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					tracks[i].Title,
					strconv.Itoa(len(features.Phrases)),
					strconv.FormatFloat(peak, 'f', 2, 64),
					status,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Title", "Phrases", "Peak energy", "Status"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft}))
			fmt.Fprintf(out, "Analyzed %d tracks, %d transitions scored\n", len(snapshot.Tracks), len(snapshot.Transitions))
			return nil
		},
	}
}
