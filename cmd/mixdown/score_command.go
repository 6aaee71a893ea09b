package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mixdown/internal/mix"
	"mixdown/internal/transition"
)

func newScoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "score <project-id>",
		Short: "Score every adjacent track transition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			tracks, err := store.ListTracks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(tracks) < 2 {
				fmt.Fprintln(cmd.OutOrStdout(), "Need at least two tracks to score transitions")
				return nil
			}

			scores := transition.Score(tracks)
			rows := make([][]string, 0, len(scores))
			for _, score := range scores {
				from := tracks[score.PairIndex]
				to := tracks[score.PairIndex+1]
				rows = append(rows, []string{
					fmt.Sprintf("%s -> %s", from.Title, to.Title),
					strconv.FormatFloat(score.TempoDelta, 'f', 1, 64),
					string(score.TempoTier),
					keyCompatLabel(score.Key),
					strconv.FormatFloat(score.Overall, 'f', 0, 64),
					string(score.Grade),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Transition", "BPM Delta", "Tempo", "Key", "Score", "Grade"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
}

func keyCompatLabel(compat mix.KeyCompat) string {
	switch compat {
	case mix.KeyCompatible:
		return "compatible"
	case mix.KeyIncompatible:
		return "incompatible"
	default:
		return "unknown"
	}
}
