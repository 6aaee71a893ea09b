package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mixdown/internal/media/ffprobe"
	"mixdown/internal/mix"
)

func newTracksCommand(ctx *commandContext) *cobra.Command {
	tracksCmd := &cobra.Command{
		Use:   "tracks",
		Short: "Manage a project's track list",
	}
	tracksCmd.AddCommand(newTracksAddCommand(ctx))
	tracksCmd.AddCommand(newTracksListCommand(ctx))
	tracksCmd.AddCommand(newTracksRemoveCommand(ctx))
	tracksCmd.AddCommand(newTracksReorderCommand(ctx))
	tracksCmd.AddCommand(newTracksCueCommand(ctx))
	return tracksCmd
}

func newTracksAddCommand(ctx *commandContext) *cobra.Command {
	var (
		title  string
		artist string
		tempo  float64
		key    string
	)

	cmd := &cobra.Command{
		Use:   "add <project-id> <audio-file>",
		Short: "Probe an audio file and append it to the project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			probe, err := ffprobe.Inspect(cmd.Context(), cfg.FFmpeg.ProbeBinary, args[1])
			if err != nil {
				return err
			}
			if probe.AudioStreamCount() == 0 {
				return fmt.Errorf("%s has no audio stream", args[1])
			}

			track := mix.Track{
				Title:       title,
				Artist:      artist,
				Path:        args[1],
				Duration:    probe.DurationSeconds(),
				TempoBPM:    tempo,
				Key:         key,
				BitrateKbps: int(probe.BitRate() / 1000),
			}
			if stream, ok := probe.PrimaryAudioStream(); ok {
				track.Format = stream.CodecName
			}
			if track.Title == "" {
				track.Title = probe.Title()
			}
			if track.Artist == "" {
				track.Artist = probe.Artist()
			}
			if track.TempoBPM == 0 {
				track.TempoBPM = probe.TempoBPM()
			}
			if track.Key == "" {
				track.Key = probe.InitialKey()
			}

			added, err := store.AddTrack(cmd.Context(), args[0], track)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added track %d: %s (%s)\n", added.Position+1, added.Title, added.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Track title (defaults to the file's tag)")
	cmd.Flags().StringVar(&artist, "artist", "", "Track artist (defaults to the file's tag)")
	cmd.Flags().Float64Var(&tempo, "bpm", 0, "Tempo in BPM (defaults to the file's tag)")
	cmd.Flags().StringVar(&key, "key", "", "Musical key (defaults to the file's tag)")
	return cmd
}

func newTracksListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's tracks in play order",
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
			rows := make([][]string, 0, len(tracks))
			for _, track := range tracks {
				tempo := ""
				if track.TempoBPM > 0 {
					tempo = strconv.FormatFloat(track.TempoBPM, 'f', 1, 64)
				}
				rows = append(rows, []string{
					strconv.Itoa(track.Position + 1),
					track.ID,
					track.Title,
					track.Artist,
					formatDuration(track.EffectiveLength()),
					tempo,
					track.Key,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "ID", "Title", "Artist", "Length", "BPM", "Key"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
			return nil
		},
	}
}

func newTracksRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project-id> <track-id>",
		Short: "Remove a track from a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := store.RemoveTrack(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed track %s\n", args[1])
			return nil
		},
	}
}

func newTracksReorderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <project-id> <track-id>...",
		Short: "Rewrite the play order to the given track ids",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := store.ReorderTracks(cmd.Context(), args[0], args[1:]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reordered tracks")
			return nil
		},
	}
}

func newTracksCueCommand(ctx *commandContext) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "cue <track-id> <marker|trim-start|trim-end> <seconds>",
		Short: "Set a cue point on a track",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			timestamp, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("parse timestamp %q: %w", args[2], err)
			}
			cue, err := store.SetCuePoint(cmd.Context(), args[0], mix.CuePoint{
				Type:      mix.CueType(args[1]),
				Timestamp: timestamp,
				Label:     label,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s cue at %.2fs (%s)\n", cue.Type, cue.Timestamp, cue.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Cue label")
	return cmd
}
