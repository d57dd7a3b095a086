package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lingua/internal/catalog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var limit int

	cmd := &cobra.Command{
		Use:   "status [FILE]",
		Short: "Show recent runs or one file's detection history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openCatalog(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return renderFileStatus(cmd, store, args[0], jsonOut)
			}
			return renderRecentRuns(cmd, store, limit, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

func renderRecentRuns(cmd *cobra.Command, store *catalog.Store, limit int, jsonOut bool) error {
	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(cmd, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}
	table := renderTable(
		[]string{"Run", "Kind", "Started", "Finished", "Files", "Tracks", "Failures"},
		buildRunRows(runs),
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

func renderFileStatus(cmd *cobra.Command, store *catalog.Store, file string, jsonOut bool) error {
	detections, err := store.DetectionsForFile(cmd.Context(), file)
	if err != nil {
		return err
	}
	changes, err := store.TagChangesForFile(cmd.Context(), file)
	if err != nil {
		return err
	}

	if jsonOut {
		return writeJSON(cmd, map[string]any{
			"file":        file,
			"detections":  detections,
			"tag_changes": changes,
		})
	}

	out := cmd.OutOrStdout()
	if len(detections) == 0 {
		fmt.Fprintf(out, "No detections recorded for %s\n", file)
		return nil
	}

	fmt.Fprintln(out, renderTable(
		[]string{"Stream", "Language", "Confidence", "Tier", "Status"},
		buildDetectionRows(detections),
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	))

	if len(changes) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]string{"Stream", "Previous", "New", "Applied"},
			buildTagChangeRows(changes),
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
		))
	}
	return nil
}

func buildRunRows(runs []catalog.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Kind,
			formatTimestamp(run.StartedAt),
			formatTimestamp(run.FinishedAt),
			fmt.Sprintf("%d", run.Files),
			fmt.Sprintf("%d", run.Tracks),
			fmt.Sprintf("%d", run.Failures),
		})
	}
	return rows
}

func buildDetectionRows(detections []catalog.Detection) [][]string {
	rows := make([][]string, 0, len(detections))
	for _, d := range detections {
		row := []string{fmt.Sprintf("%d", d.StreamIndex), "-", "-", "-", "ok"}
		switch {
		case d.Skipped:
			row[4] = "skipped: " + d.SkipReason
		case d.Error != "":
			row[4] = "error: " + d.Error
		default:
			row[1] = d.Language
			row[2] = fmt.Sprintf("%.2f", d.Confidence)
			row[3] = d.Tier
			if d.EarlyExit {
				row[4] = "ok (early exit)"
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func buildTagChangeRows(changes []catalog.TagChange) [][]string {
	rows := make([][]string, 0, len(changes))
	for _, change := range changes {
		previous := change.PreviousLanguage
		if previous == "" {
			previous = "-"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", change.StreamIndex),
			previous,
			change.NewLanguage,
			formatTimestamp(change.AppliedAt),
		})
	}
	return rows
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}
