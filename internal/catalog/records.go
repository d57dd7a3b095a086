package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run is one detection or correction invocation.
type Run struct {
	ID         string
	Kind       string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      int
	Tracks     int
	Failures   int
}

// Detection is one persisted per-track outcome.
type Detection struct {
	RunID       string
	File        string
	StreamIndex int
	Language    string
	Confidence  float64
	Tier        string
	EarlyExit   bool
	Skipped     bool
	SkipReason  string
	Error       string
	CreatedAt   time.Time
}

// TagChange records an applied tag rewrite with its previous value.
type TagChange struct {
	File             string
	StreamIndex      int
	PreviousLanguage string
	NewLanguage      string
	AppliedAt        time.Time
}

// RunKind values for Run.Kind.
const (
	RunKindDetect  = "detect"
	RunKindCorrect = "correct"
)

// StartRun records a new run.
func (s *Store) StartRun(ctx context.Context, id, kind string) error {
	return s.execWithRetry(ctx,
		"INSERT INTO runs (id, kind, started_at) VALUES (?, ?, ?)",
		id, kind, time.Now().UTC().Format(time.RFC3339))
}

// FinishRun stamps a run's completion and counters.
func (s *Store) FinishRun(ctx context.Context, id string, files, tracks, failures int) error {
	return s.execWithRetry(ctx,
		"UPDATE runs SET finished_at = ?, files = ?, tracks = ?, failures = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), files, tracks, failures, id)
}

// RecordDetection persists one per-track outcome.
func (s *Store) RecordDetection(ctx context.Context, d Detection) error {
	return s.execWithRetry(ctx,
		`INSERT INTO detections
		 (run_id, file, stream_index, language, confidence, tier, early_exit, skipped, skip_reason, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RunID, d.File, d.StreamIndex, d.Language, d.Confidence, d.Tier,
		boolToInt(d.EarlyExit), boolToInt(d.Skipped), d.SkipReason, d.Error,
		time.Now().UTC().Format(time.RFC3339))
}

// RecordTagChange persists a backup of a rewritten tag.
func (s *Store) RecordTagChange(ctx context.Context, c TagChange) error {
	return s.execWithRetry(ctx,
		`INSERT INTO tag_changes (file, stream_index, previous_language, new_language, applied_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.File, c.StreamIndex, c.PreviousLanguage, c.NewLanguage,
		time.Now().UTC().Format(time.RFC3339))
}

// RecentRuns returns the newest runs first, up to limit.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, started_at, COALESCE(finished_at, ''), files, tracks, failures
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(&run.ID, &run.Kind, &started, &finished, &run.Files, &run.Tracks, &run.Failures); err != nil {
			return nil, fmt.Errorf("catalog: scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DetectionsForFile returns the most recent detection per track of a file.
func (s *Store) DetectionsForFile(ctx context.Context, file string) ([]Detection, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, file, stream_index, language, confidence, tier, early_exit, skipped, skip_reason, error, created_at
		 FROM detections WHERE file = ? AND id IN (
		     SELECT MAX(id) FROM detections WHERE file = ? GROUP BY stream_index
		 ) ORDER BY stream_index`, file, file)
	if err != nil {
		return nil, fmt.Errorf("catalog: query detections: %w", err)
	}
	defer rows.Close()
	return scanDetections(rows)
}

// TagChangesForFile returns the rewrite history of a file, newest first.
func (s *Store) TagChangesForFile(ctx context.Context, file string) ([]TagChange, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT file, stream_index, previous_language, new_language, applied_at
		 FROM tag_changes WHERE file = ? ORDER BY id DESC`, file)
	if err != nil {
		return nil, fmt.Errorf("catalog: query tag changes: %w", err)
	}
	defer rows.Close()

	var changes []TagChange
	for rows.Next() {
		var change TagChange
		var applied string
		if err := rows.Scan(&change.File, &change.StreamIndex, &change.PreviousLanguage, &change.NewLanguage, &applied); err != nil {
			return nil, fmt.Errorf("catalog: scan tag change: %w", err)
		}
		change.AppliedAt = parseTimestamp(applied)
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

func scanDetections(rows *sql.Rows) ([]Detection, error) {
	var detections []Detection
	for rows.Next() {
		var d Detection
		var earlyExit, skipped int
		var created string
		if err := rows.Scan(&d.RunID, &d.File, &d.StreamIndex, &d.Language, &d.Confidence, &d.Tier,
			&earlyExit, &skipped, &d.SkipReason, &d.Error, &created); err != nil {
			return nil, fmt.Errorf("catalog: scan detection: %w", err)
		}
		d.EarlyExit = earlyExit != 0
		d.Skipped = skipped != 0
		d.CreatedAt = parseTimestamp(created)
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
