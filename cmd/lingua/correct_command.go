package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lingua/internal/catalog"
	"lingua/internal/config"
	"lingua/internal/correction"
	"lingua/internal/logging"
	"lingua/internal/media/ffprobe"
	"lingua/internal/sidecar"
)

func newCorrectCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "correct FILE...",
		Short: "Apply detected languages to container tags",
		Long: `Apply the language decisions recorded by "lingua detect" to the container's
audio track tags. Each file's sidecar is evaluated against the correction
policy; tracks that pass get their language tag rewritten with an ffmpeg
stream copy. Use --dry-run to print the plan without touching any file.`,
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
			logger = logging.WithComponent(logger, "correct")

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var store *catalog.Store
			if !dryRun {
				store, err = ctx.openCatalog(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			runID := uuid.NewString()
			if store != nil {
				if err := store.StartRun(runCtx, runID, catalog.RunKindCorrect); err != nil {
					return err
				}
			}

			var files, tracks, failures int
			for _, file := range args {
				plan, err := buildCorrectionPlan(runCtx, cfg, file)
				if err != nil {
					failures++
					logger.Error("planning failed",
						logging.String("file", file),
						logging.Error(err))
					fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n  %v\n", file, err)
					continue
				}

				files++
				tracks += len(plan.Decisions)
				printPlan(cmd, plan)

				if dryRun || !plan.HasChanges() {
					continue
				}

				// Back up the outgoing tags before ffmpeg rewrites them.
				if store != nil {
					recordTagChanges(runCtx, store, logger, plan)
				}
				if err := correction.Apply(runCtx, plan, correction.ApplyOptions{
					FFmpegBinary: cfg.FFmpegBinary(),
				}); err != nil {
					failures++
					logger.Error("retag failed",
						logging.String("file", file),
						logging.Error(err))
					fmt.Fprintf(cmd.OutOrStdout(), "  retag failed: %v\n", err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  tags updated\n")
			}

			if store != nil {
				if err := store.FinishRun(runCtx, runID, files, tracks, failures); err != nil {
					logger.Warn("failed to finalize run record", logging.Error(err))
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d file(s) failed", failures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the tag-edit plan without modifying any file")
	return cmd
}

func buildCorrectionPlan(ctx context.Context, cfg *config.Config, file string) (correction.Plan, error) {
	doc, err := sidecar.Load(file)
	if err != nil {
		if errors.Is(err, sidecar.ErrMissing) {
			return correction.Plan{}, fmt.Errorf("no sidecar for %s; run \"lingua detect\" first", file)
		}
		return correction.Plan{}, err
	}

	probe, err := ffprobe.Inspect(ctx, cfg.FFprobeBinary(), file)
	if err != nil {
		return correction.Plan{}, fmt.Errorf("probe: %w", err)
	}

	return correction.BuildPlan(doc, probe, correctionPolicy(cfg)), nil
}

func correctionPolicy(cfg *config.Config) correction.Policy {
	return correction.Policy{
		MinConfidence:           cfg.Correction.MinConfidenceThreshold,
		RequireHighConfidence:   cfg.Correction.RequireHighConfidence,
		PreferSubtitleValidated: cfg.Correction.PreferSubtitleValidated,
		AmbiguousLow:            cfg.Correction.AmbiguousLowThreshold,
		AmbiguousHigh:           cfg.Correction.AmbiguousHighThreshold,
	}
}

func printPlan(cmd *cobra.Command, plan correction.Plan) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s\n", plan.File)
	if len(plan.Decisions) == 0 {
		fmt.Fprintln(out, "  no audio tracks")
		return
	}
	table := renderTable(
		[]string{"Stream", "Audio", "Current", "New", "Action"},
		buildDecisionRows(plan.Decisions),
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
	)
	fmt.Fprintln(out, table)
}

// buildDecisionRows renders one row per audio track of the plan.
func buildDecisionRows(decisions []correction.Decision) [][]string {
	rows := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		current := d.CurrentTag
		if current == "" {
			current = "-"
		}
		target := "-"
		action := string(d.Reason)
		if d.ShouldApply {
			target = d.TargetLanguage
			action = "retag"
			if d.Mixed {
				action = "retag (mixed)"
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", d.Index),
			fmt.Sprintf("%d", d.Ordinal),
			current,
			target,
			action,
		})
	}
	return rows
}

func recordTagChanges(ctx context.Context, store *catalog.Store, logger *slog.Logger, plan correction.Plan) {
	for _, d := range plan.Decisions {
		if !d.ShouldApply {
			continue
		}
		change := catalog.TagChange{
			File:             plan.File,
			StreamIndex:      int(d.Index),
			PreviousLanguage: d.CurrentTag,
			NewLanguage:      d.TargetLanguage,
		}
		if err := store.RecordTagChange(ctx, change); err != nil {
			logger.Warn("failed to record tag change",
				logging.String("file", plan.File),
				logging.Int("stream", int(d.Index)),
				logging.Error(err))
		}
	}
}
