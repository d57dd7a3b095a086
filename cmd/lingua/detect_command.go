package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lingua/internal/detection"
	"lingua/internal/lid"
	"lingua/internal/sidecar"
	"lingua/internal/staging"
	"lingua/internal/vad"
)

const staleWorkspaceAge = 24 * time.Hour

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var keepStaging bool

	cmd := &cobra.Command{
		Use:   "detect FILE...",
		Short: "Identify the spoken language of each audio track",
		Long: `Identify the spoken language of every audio track in the given media files.

Each file is probed, speech segments are sampled across the timeline, and the
per-segment language inferences are folded into one per-track decision. The
decision is written to a JSON sidecar next to the media file; run
"lingua correct" afterwards to apply it to the container tags.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			staging.CleanStale(cfg.Paths.StagingDir, staleWorkspaceAge, logger)

			store, err := ctx.openCatalog(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			classifier, err := newClassifier(cfg)
			if err != nil {
				return err
			}

			pipeline := detection.New(cfg, logger, classifier, newDetector(cfg), store)
			summary, err := pipeline.Run(runCtx, args, detection.Options{
				Force:       force,
				KeepStaging: keepStaging,
			})
			if err != nil {
				return err
			}

			printDetectSummary(cmd, summary)
			if summary.Failures > 0 {
				return fmt.Errorf("%d track(s) failed", summary.Failures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reprocess files that already have a sidecar")
	cmd.Flags().BoolVar(&keepStaging, "keep-staging", false, "Keep extracted audio in the staging directory")
	return cmd
}

func printDetectSummary(cmd *cobra.Command, summary detection.Summary) {
	out := cmd.OutOrStdout()
	for _, report := range summary.Detections {
		fmt.Fprintf(out, "\n%s\n", report.File)
		if report.Err != nil {
			fmt.Fprintf(out, "  failed: %v\n", report.Err)
			continue
		}
		rows := buildTrackRows(report.Document)
		if len(rows) == 0 {
			fmt.Fprintln(out, "  no audio tracks")
			continue
		}
		table := renderTable(
			[]string{"Stream", "Language", "Confidence", "Tier", "Notes"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
		)
		fmt.Fprintln(out, table)
	}

	fmt.Fprintf(out, "\nProcessed %d file(s), skipped %d, %d track(s), %d failure(s)\n",
		summary.Files, summary.Skipped, summary.Tracks, summary.Failures)
}

// buildTrackRows flattens a sidecar document into display rows ordered by
// container stream index.
func buildTrackRows(doc sidecar.Document) [][]string {
	indices := make([]int, 0, len(doc.Results))
	for index := range doc.Results {
		indices = append(indices, int(index))
	}
	sort.Ints(indices)

	rows := make([][]string, 0, len(indices))
	for _, index := range indices {
		record := doc.Results[sidecar.StreamIndex(index)]
		row := []string{fmt.Sprintf("%d", index), "-", "-", "-", ""}
		switch {
		case record.Skipped:
			row[4] = "skipped: " + record.SkipReason
		case record.Error != "":
			row[4] = "error: " + record.Error
		case record.Detection != nil:
			d := record.Detection
			row[1] = d.Language
			row[2] = fmt.Sprintf("%.2f", d.Confidence)
			row[3] = d.Tier
			row[4] = strings.Join(trackNotes(d), ", ")
		}
		rows = append(rows, row)
	}
	return rows
}

func trackNotes(d *sidecar.Detection) []string {
	var notes []string
	if d.EarlyExit {
		notes = append(notes, "early exit")
	}
	if d.SegmentSource == string(vad.SourceFallback) {
		notes = append(notes, "fallback sampling")
	}
	if d.SubtitleValidation != nil && d.SubtitleValidation.MatchingSubtitleFound {
		notes = append(notes, "subtitle match")
	}
	if len(d.Failures) > 0 {
		notes = append(notes, fmt.Sprintf("%d segment failure(s)", len(d.Failures)))
	}
	if secondary := secondaryLanguages(d); len(secondary) > 0 {
		notes = append(notes, "also heard: "+strings.Join(secondary, ", "))
	}
	return notes
}

// secondaryLanguages lists the runner-up languages in the track's
// distribution, strongest first, capped at two.
func secondaryLanguages(d *sidecar.Detection) []string {
	if len(d.Distribution) < 2 {
		return nil
	}
	var secondary []string
	for _, lang := range lid.Distribution(d.Distribution).Languages() {
		if lang == d.Language {
			continue
		}
		secondary = append(secondary, lang)
		if len(secondary) == 2 {
			break
		}
	}
	return secondary
}
