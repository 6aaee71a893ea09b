package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mixdown/internal/library"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect the audio file library",
	}
	libraryCmd.AddCommand(newLibraryScanCommand(ctx))
	libraryCmd.AddCommand(newLibraryDupesCommand(ctx))
	return libraryCmd
}

func (c *commandContext) openLibraryIndex() (*library.Index, string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	if cfg.Paths.LibraryDir == "" {
		return nil, "", fmt.Errorf("paths.library_dir is not configured")
	}
	return library.NewIndex(cfg.LibraryIndexPath(), c.ensureLogger()), cfg.Paths.LibraryDir, nil
}

func newLibraryScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Walk the library directory and refresh the file index",
		RunE: func(cmd *cobra.Command, args []string) error {
			index, root, err := ctx.openLibraryIndex()
			if err != nil {
				return err
			}
			indexed, reused, err := index.Rescan(cmd.Context(), root)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %s: %d files indexed, %d unchanged\n", root, indexed, reused)
			return nil
		},
	}
}

func newLibraryDupesCommand(ctx *commandContext) *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "Report likely duplicate files in the library index",
		RunE: func(cmd *cobra.Command, args []string) error {
			index, _, err := ctx.openLibraryIndex()
			if err != nil {
				return err
			}
			pairs := index.FindDuplicates(threshold)
			if len(pairs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No duplicates found")
				return nil
			}
			rows := make([][]string, 0, len(pairs))
			for _, pair := range pairs {
				reason := "title"
				if pair.SameSize {
					reason = "size"
				}
				rows = append(rows, []string{
					pair.A.Path,
					pair.B.Path,
					strconv.Itoa(pair.Similarity),
					reason,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File A", "File B", "Similarity", "Matched on"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
	cmd.Flags().IntVar(&threshold, "threshold", library.DefaultSimilarityThreshold, "Title similarity threshold (0-100)")
	return cmd
}
