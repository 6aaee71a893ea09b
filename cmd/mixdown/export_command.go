package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mixdown/internal/mix"
	"mixdown/internal/render"
	"mixdown/internal/services/ffmpeg"
	"mixdown/internal/textutil"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		outputName string
		format     string
		bitrate    int
		crossfade  float64
		cueSheet   bool
		normalize  bool
		title      string
		artist     string
	)

	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Render, normalize, and encode the project mix",
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
			proj, err := store.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tracks, err := store.ListTracks(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("format") && cfg.Export.Format != "" {
				format = cfg.Export.Format
			}
			if !cmd.Flags().Changed("bitrate") {
				bitrate = cfg.Export.MP3BitrateKbps
			}
			if !cmd.Flags().Changed("normalize") {
				normalize = cfg.Export.Normalization
			}
			if !cmd.Flags().Changed("cue-sheet") {
				cueSheet = cfg.Export.GenerateCueSheet
			}

			parsedFormat, err := mix.ParseFormat(format)
			if err != nil {
				return err
			}
			request := mix.ExportRequest{
				ProjectID:         proj.ID,
				OutputDirectory:   cfg.Paths.OutputDir,
				OutputFilename:    outputName,
				Format:            parsedFormat,
				MP3BitrateKbps:    bitrate,
				Normalization:     normalize,
				GenerateCueSheet:  cueSheet,
				CrossfadeDuration: proj.CrossfadeSeconds,
				Metadata: mix.Metadata{
					Title:  title,
					Artist: artist,
				},
			}
			if request.OutputFilename == "" {
				request.OutputFilename = textutil.SanitizeFileName(proj.Name) + "." + string(parsedFormat)
			}
			if request.Metadata.Title == "" {
				request.Metadata.Title = proj.Name
			}
			if cmd.Flags().Changed("crossfade") {
				request.CrossfadeDuration = crossfade
			}

			record, err := store.CreateExportJob(cmd.Context(), request)
			if err != nil {
				return err
			}

			client, err := ffmpeg.New(cfg.FFmpeg.Binary)
			if err != nil {
				return err
			}
			pipeline := render.New(cfg, client,
				render.WithRecorder(store),
				render.WithLogger(ctx.ensureLogger()))

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			job, err := pipeline.Start(runCtx, record.ID, record.Request, tracks)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Export job %s started\n", job.ID)
			var lastPhase mix.Phase
			for update := range job.Progress {
				if update.Phase != lastPhase {
					fmt.Fprintf(out, "[%s]\n", update.Phase)
					lastPhase = update.Phase
				}
				switch update.Phase {
				case mix.PhaseAnalyzing:
					if update.CurrentTrackName != "" {
						fmt.Fprintf(out, "  measuring loudness %d/%d: %s\n",
							update.CurrentTrackIndex+1, update.TotalTracks, update.CurrentTrackName)
					}
				case mix.PhaseRendering:
					if update.CurrentTrackName != "" {
						fmt.Fprintf(out, "  %5.1f%%  %s (eta %s)\n",
							update.Percentage, update.CurrentTrackName, formatDuration(update.ETASeconds))
					}
				}
			}

			outcome := job.Wait()
			switch outcome.Phase {
			case mix.PhaseComplete:
				fmt.Fprintf(out, "Export complete: %s\n", outcome.OutputPath)
				return nil
			case mix.PhaseCancelled:
				fmt.Fprintln(out, "Export cancelled")
				return outcome.Err
			default:
				if outcome.Err != nil {
					return outcome.Err
				}
				return errors.New("export failed")
			}
		},
	}
	cmd.Flags().StringVarP(&outputName, "output", "o", "", "Output filename (defaults to <project-name>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "wav", "Output format: wav, flac, or mp3")
	cmd.Flags().IntVar(&bitrate, "bitrate", 0, "MP3 bitrate in kbps (128, 192, 256, or 320)")
	cmd.Flags().Float64Var(&crossfade, "crossfade", 0, "Crossfade duration in seconds (defaults to the project setting)")
	cmd.Flags().BoolVar(&cueSheet, "cue-sheet", false, "Write a cue sheet next to the output")
	cmd.Flags().BoolVar(&normalize, "normalize", true, "Apply two-pass loudness normalization")
	cmd.Flags().StringVar(&title, "title", "", "Mix title for output metadata")
	cmd.Flags().StringVar(&artist, "artist", "", "Mix artist for output metadata")
	return cmd
}
