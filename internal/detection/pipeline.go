package detection

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lingua/internal/catalog"
	"lingua/internal/config"
	"lingua/internal/lid"
	"lingua/internal/logging"
	"lingua/internal/media/extract"
	"lingua/internal/media/ffprobe"
	"lingua/internal/services"
	"lingua/internal/sidecar"
	"lingua/internal/staging"
	"lingua/internal/vad"
)

// SkipReasonCommentary marks audio tracks excluded because their title names
// a commentary or similar secondary track.
const SkipReasonCommentary = "commentary_track"

// Options tune one detection invocation beyond the config file.
type Options struct {
	// Force reprocesses files that already have a sidecar.
	Force bool
	// KeepStaging leaves extracted audio behind for inspection.
	KeepStaging bool
}

// Pipeline runs language detection over media files.
type Pipeline struct {
	cfg        *config.Config
	logger     *slog.Logger
	classifier lid.Classifier
	detector   vad.Detector
	store      *catalog.Store

	// External tool seams, replaced in tests.
	probe          func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	extractTrack   func(ctx context.Context, opts extract.Options, source string, stream ffprobe.Stream, dest string) error
	extractSegment func(ctx context.Context, opts extract.Options, source string, start, duration float64, dest string) error
}

// New assembles a pipeline. detector may be nil (uniform fallback sampling),
// store may be nil (no run history).
func New(cfg *config.Config, logger *slog.Logger, classifier lid.Classifier, detector vad.Detector, store *catalog.Store) *Pipeline {
	return &Pipeline{
		cfg:            cfg,
		logger:         logging.WithComponent(logger, "detect"),
		classifier:     classifier,
		detector:       detector,
		store:          store,
		probe:          ffprobe.Inspect,
		extractTrack:   extract.TrackAudio,
		extractSegment: extract.Segment,
	}
}

// Summary aggregates a run's outcome across files.
type Summary struct {
	RunID      string
	Files      int
	Skipped    int
	Tracks     int
	Failures   int
	Detections []FileReport
}

// FileReport is one file's outcome.
type FileReport struct {
	File     string
	Document sidecar.Document
	Tracks   int
	Failures int
	Err      error
}

// Run processes the given files sequentially and returns a run summary. File
// failures are recorded, not fatal; the returned error covers only setup.
func (p *Pipeline) Run(ctx context.Context, files []string, opts Options) (Summary, error) {
	ws, err := staging.NewRun(p.cfg.Paths.StagingDir)
	if err != nil {
		return Summary{}, err
	}
	if opts.KeepStaging || !p.cfg.Detection.CleanupIntermediate {
		ws.Keep()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			p.logger.Warn("staging cleanup failed", logging.Error(err))
		}
	}()

	ctx = services.WithRunID(ctx, ws.RunID)
	summary := Summary{RunID: ws.RunID}
	if p.store != nil {
		if err := p.store.StartRun(ctx, ws.RunID, catalog.RunKindDetect); err != nil {
			return summary, err
		}
	}

	for _, file := range files {
		fileCtx := services.WithFile(ctx, file)
		logger := logging.WithContext(fileCtx, p.logger)

		if !opts.Force {
			if _, err := sidecar.Load(file); err == nil {
				logger.Info("sidecar present, skipping")
				summary.Skipped++
				continue
			}
		}

		report := p.processFile(fileCtx, ws, file)
		summary.Files++
		summary.Tracks += report.Tracks
		summary.Failures += report.Failures
		summary.Detections = append(summary.Detections, report)
		if report.Err != nil {
			logger.Error("file processing failed", logging.Error(report.Err))
		}
	}

	if p.store != nil {
		if err := p.store.FinishRun(ctx, ws.RunID, summary.Files, summary.Tracks, summary.Failures); err != nil {
			p.logger.Warn("failed to finalize run record", logging.Error(err))
		}
	}
	return summary, nil
}

func (p *Pipeline) processFile(parent context.Context, ws *staging.Workspace, file string) FileReport {
	report := FileReport{File: file}

	// Per-file ceiling; a stuck external tool must not stall the whole run.
	ctx, cancel := context.WithTimeout(parent, time.Duration(p.cfg.Detection.MaxProcessingTime)*time.Second)
	defer cancel()

	logger := logging.WithContext(parent, p.logger)

	fs := ws.ForFile(file)
	defer func() {
		if err := fs.Remove(); err != nil {
			logger.Warn("staging cleanup failed", logging.Error(err))
		}
	}()

	probe, err := p.probe(ctx, p.cfg.FFprobeBinary(), file)
	if err != nil {
		report.Err = services.Wrap(services.ErrExternalTool, "detection", "probe", "container probe failed", err)
		return report
	}

	var priors map[string]struct{}
	if p.cfg.Detection.UseSubtitlePriors {
		priors = lid.CollectSubtitlePriors(probe.SubtitleStreams())
	}

	audio := probe.AudioStreams()
	results := make(map[sidecar.StreamIndex]sidecar.TrackRecord, len(audio))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.Detection.TrackWorkers)

	for _, stream := range audio {
		stream := stream
		if lid.IsCommentaryTitle(stream.Title()) {
			mu.Lock()
			results[sidecar.StreamIndex(stream.Index)] = sidecar.TrackRecord{
				Skipped:    true,
				SkipReason: SkipReasonCommentary,
			}
			mu.Unlock()
			logger.Info("skipping commentary track",
				logging.Int("stream", stream.Index),
				logging.String("title", stream.Title()))
			continue
		}

		group.Go(func() error {
			record := p.processTrack(groupCtx, fs, probe, file, stream, priors)
			mu.Lock()
			results[sidecar.StreamIndex(stream.Index)] = record
			mu.Unlock()
			// Track failures never cancel sibling tracks.
			return nil
		})
	}
	_ = group.Wait()

	report.Tracks = len(results)
	for _, record := range results {
		if record.Error != "" {
			report.Failures++
		}
	}

	doc := sidecar.Document{
		File:        file,
		ProcessedAt: time.Now(),
		Parameters: &sidecar.Parameters{
			TargetSpeechDuration: p.cfg.Detection.TargetSpeechDuration,
			VADThreshold:         p.cfg.Detection.VADThreshold,
			ConfidenceThresholds: sidecar.ConfidenceThresholds{
				High:      p.cfg.Detection.ConfidenceHighThreshold,
				Medium:    p.cfg.Detection.ConfidenceMediumThreshold,
				EarlyExit: p.cfg.Detection.EarlyExitThreshold,
			},
			SubtitlePriors: sortedPriors(priors),
		},
		Results: results,
	}
	if err := sidecar.Write(doc); err != nil {
		report.Err = err
		return report
	}
	report.Document = doc

	p.recordCatalog(parent, ws.RunID, file, results)
	return report
}

// processTrack runs the full per-track pipeline. Failures come back as an
// error record; they never propagate.
func (p *Pipeline) processTrack(ctx context.Context, fs *staging.FileSpace, probe ffprobe.Result, file string, stream ffprobe.Stream, priors map[string]struct{}) sidecar.TrackRecord {
	start := time.Now()
	logger := logging.WithContext(ctx, p.logger).With(logging.Int("stream", stream.Index))

	if _, err := fs.TrackDir(stream.Index); err != nil {
		return sidecar.TrackRecord{Error: err.Error()}
	}

	trackWAV := fs.TrackWAV(stream.Index)
	extractOpts := extract.Options{
		FFmpegBinary:        p.cfg.FFmpegBinary(),
		PreferCenterChannel: p.cfg.Detection.PreferCenterChannel,
	}
	if err := p.extractTrack(ctx, extractOpts, file, stream, trackWAV); err != nil {
		logger.Warn("track extraction failed", logging.Error(err))
		return sidecar.TrackRecord{Error: string(lid.ErrorSegmentExtractFailed)}
	}

	duration := stream.DurationSeconds()
	if duration <= 0 {
		duration = probe.DurationSeconds()
	}

	segments, source, vadErr := vad.FindSegments(ctx, p.detector, trackWAV, duration, vad.Options{
		MinSegmentSeconds: p.cfg.Detection.MinSegmentLength,
	})
	if vadErr != nil {
		logger.Warn("vad failed, using uniform sampling", logging.Error(vadErr))
	}

	totalSpeech := lid.TotalDuration(segments)
	selected := lid.SelectSegments(segments, p.cfg.Detection.TargetSpeechDuration, duration)

	classify := p.segmentClassifier(fs, trackWAV, stream.Index)
	result := lid.Aggregate(ctx, selected, classify, lid.Params{
		EarlyExitThreshold:    p.cfg.Detection.EarlyExitThreshold,
		MinDurationBeforeExit: p.cfg.Detection.MinDurationBeforeExit,
		ConfidenceHigh:        p.cfg.Detection.ConfidenceHighThreshold,
		ConfidenceMedium:      p.cfg.Detection.ConfidenceMediumThreshold,
	})

	if len(priors) > 0 {
		result.SubtitleValidation = lid.ValidateAgainstSubtitles(result.PrimaryLanguage, priors)
		result.Tier = lid.PromoteTier(result.Tier, result.SubtitleValidation)
	}

	logger.Info("track classified",
		logging.String("language", result.PrimaryLanguage),
		logging.Float64("confidence", result.Confidence),
		logging.String("tier", string(result.Tier)),
		logging.Bool("early_exit", result.EarlyExit),
		logging.Int("segments", len(selected)),
		logging.Duration("elapsed", time.Since(start)))

	return sidecar.TrackRecord{
		Detection: sidecar.FromResult(result, len(segments), totalSpeech, string(source)),
	}
}

// segmentClassifier materializes one selected segment as a WAV clip and runs
// the backend on it. Extraction failures surface as segment failures so the
// aggregator can keep going.
func (p *Pipeline) segmentClassifier(fs *staging.FileSpace, trackWAV string, streamIndex int) lid.ClassifyFunc {
	extractOpts := extract.Options{FFmpegBinary: p.cfg.FFmpegBinary()}
	return func(ctx context.Context, segment lid.Selected) lid.Inference {
		clip := fs.SegmentWAV(streamIndex, segment.Slot)
		if err := p.extractSegment(ctx, extractOpts, trackWAV, segment.Start, segment.Duration, clip); err != nil {
			return lid.Inference{Err: lid.ErrorSegmentExtractFailed, Detail: err.Error()}
		}
		return p.classifier.Classify(ctx, clip)
	}
}

func (p *Pipeline) recordCatalog(ctx context.Context, runID, file string, results map[sidecar.StreamIndex]sidecar.TrackRecord) {
	if p.store == nil {
		return
	}
	for index, record := range results {
		entry := catalog.Detection{
			RunID:       runID,
			File:        file,
			StreamIndex: int(index),
			Skipped:     record.Skipped,
			SkipReason:  record.SkipReason,
			Error:       record.Error,
		}
		if record.Detection != nil {
			entry.Language = record.Detection.Language
			entry.Confidence = record.Detection.Confidence
			entry.Tier = record.Detection.Tier
			entry.EarlyExit = record.Detection.EarlyExit
		}
		if err := p.store.RecordDetection(ctx, entry); err != nil {
			logging.WithContext(ctx, p.logger).Warn("failed to record detection", logging.Error(err))
		}
	}
}

func sortedPriors(priors map[string]struct{}) []string {
	if len(priors) == 0 {
		return nil
	}
	out := make([]string, 0, len(priors))
	for lang := range priors {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
