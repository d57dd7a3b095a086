// Package vad locates speech intervals in an extracted audio track. The
// detector itself is an injected capability; this package turns its raw
// intervals into clipped, ordered speech segments and supplies a uniform
// sampling fallback when no detector output is available.
package vad

import (
	"context"

	"lingua/internal/lid"
)

// Interval is a raw speech interval reported by a detector, in seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Detector is the injected voice-activity capability: an extracted mono WAV in,
// speech intervals out. Implementations must respect the context deadline.
type Detector interface {
	DetectSpeech(ctx context.Context, wavPath string) ([]Interval, error)
	Name() string
}

// Source records how the speech segments were obtained so that callers can
// discount confidence for fallback sampling.
type Source string

const (
	SourceDetector Source = "detector"
	SourceFallback Source = "fallback"
)

// Options bound segment geometry.
type Options struct {
	// MinSegmentSeconds drops intervals whose native span is shorter.
	MinSegmentSeconds float64
	// FallbackCadenceSeconds is the spacing of synthesized intervals when the
	// detector fails or finds nothing. Zero means 30.
	FallbackCadenceSeconds float64
}

// FindSegments runs the detector and normalizes its output into ordered speech
// segments. Detector failure is recoverable: the result falls back to uniform
// sampling across the track and is marked SourceFallback. The returned error
// is the detector's error when fallback was taken, for recording only.
func FindSegments(ctx context.Context, detector Detector, wavPath string, trackDuration float64, opts Options) ([]lid.Segment, Source, error) {
	cadence := opts.FallbackCadenceSeconds
	if cadence <= 0 {
		cadence = 30
	}

	if detector == nil {
		return uniformSegments(trackDuration, cadence), SourceFallback, nil
	}

	intervals, err := detector.DetectSpeech(ctx, wavPath)
	if err != nil {
		return uniformSegments(trackDuration, cadence), SourceFallback, err
	}

	segments := make([]lid.Segment, 0, len(intervals))
	for _, interval := range intervals {
		duration := interval.End - interval.Start
		if duration < opts.MinSegmentSeconds || duration <= 0 {
			continue
		}
		// Long intervals are not split here; the detector enforces its own
		// maximum span.
		segments = append(segments, lid.Segment{Start: interval.Start, Duration: duration})
	}
	if len(segments) == 0 {
		return uniformSegments(trackDuration, cadence), SourceFallback, nil
	}
	return segments, SourceDetector, nil
}

func uniformSegments(trackDuration, cadence float64) []lid.Segment {
	if trackDuration <= 0 {
		return nil
	}
	segments := make([]lid.Segment, 0, int(trackDuration/cadence)+1)
	for start := 0.0; start < trackDuration; start += cadence {
		duration := cadence
		if start+duration > trackDuration {
			duration = trackDuration - start
		}
		if duration <= 0 {
			break
		}
		segments = append(segments, lid.Segment{Start: start, Duration: duration})
	}
	return segments
}
