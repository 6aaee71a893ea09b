package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mixdown/internal/timeline"
)

func newTimelineCommand(ctx *commandContext) *cobra.Command {
	var crossfade float64

	cmd := &cobra.Command{
		Use:   "timeline <project-id>",
		Short: "Preview the computed mix timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			proj, err := store.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tracks, err := store.ListTracks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			duration := proj.CrossfadeSeconds
			if cmd.Flags().Changed("crossfade") {
				duration = crossfade
			}

			tl, err := timeline.Build(tracks, duration)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(tl.Placements))
			for _, placement := range tl.Placements {
				rows = append(rows, []string{
					strconv.Itoa(placement.TrackIndex + 1),
					placement.Title,
					formatDuration(placement.StartTime),
					formatDuration(placement.EndTime()),
					strconv.FormatFloat(placement.CrossfadeIn, 'f', 1, 64),
					strconv.FormatFloat(placement.CrossfadeOut, 'f', 1, 64),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Title", "Start", "End", "Fade in", "Fade out"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight}))
			fmt.Fprintf(out, "Total duration: %s (crossfade %.1fs)\n", formatDuration(tl.TotalDuration()), duration)
			return nil
		},
	}
	cmd.Flags().Float64Var(&crossfade, "crossfade", 0, "Crossfade duration in seconds (defaults to the project setting)")
	return cmd
}
