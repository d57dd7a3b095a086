package vad

import (
	"context"
	"errors"
	"testing"
)

type stubDetector struct {
	intervals []Interval
	err       error
}

func (s *stubDetector) DetectSpeech(ctx context.Context, wavPath string) ([]Interval, error) {
	return s.intervals, s.err
}

func (s *stubDetector) Name() string { return "stub" }

func TestFindSegmentsDropsShortIntervals(t *testing.T) {
	detector := &stubDetector{intervals: []Interval{
		{Start: 0, End: 1},    // below minimum
		{Start: 10, End: 15},  // kept
		{Start: 20, End: 19},  // malformed
		{Start: 50, End: 100}, // long intervals pass through unsplit
	}}
	segments, source, err := FindSegments(context.Background(), detector, "in.wav", 3600, Options{MinSegmentSeconds: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != SourceDetector {
		t.Fatalf("source = %s, want detector", source)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", segments)
	}
	if segments[1].Duration != 50 {
		t.Fatalf("long interval truncated: %+v", segments[1])
	}
}

func TestFindSegmentsFallbackOnDetectorError(t *testing.T) {
	detector := &stubDetector{err: errors.New("model missing")}
	segments, source, err := FindSegments(context.Background(), detector, "in.wav", 95, Options{MinSegmentSeconds: 3})
	if err == nil {
		t.Fatal("expected detector error to be surfaced for recording")
	}
	if source != SourceFallback {
		t.Fatalf("source = %s, want fallback", source)
	}
	// 95s at a 30s cadence: 30+30+30+5.
	if len(segments) != 4 {
		t.Fatalf("expected 4 uniform segments, got %+v", segments)
	}
	if segments[3].Duration != 5 {
		t.Fatalf("last segment = %+v, want 5s remainder", segments[3])
	}
}

func TestFindSegmentsFallbackOnEmptyDetection(t *testing.T) {
	detector := &stubDetector{}
	segments, source, err := FindSegments(context.Background(), detector, "in.wav", 60, Options{MinSegmentSeconds: 3})
	if err != nil {
		t.Fatalf("empty detection is not an error: %v", err)
	}
	if source != SourceFallback {
		t.Fatalf("source = %s, want fallback", source)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 uniform segments, got %+v", segments)
	}
}

func TestFindSegmentsNilDetector(t *testing.T) {
	segments, source, err := FindSegments(context.Background(), nil, "in.wav", 45, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != SourceFallback || len(segments) != 2 {
		t.Fatalf("got %s/%d segments", source, len(segments))
	}
}

func TestFindSegmentsZeroDuration(t *testing.T) {
	segments, _, _ := FindSegments(context.Background(), &stubDetector{}, "in.wav", 0, Options{})
	if len(segments) != 0 {
		t.Fatalf("expected no segments for zero-duration track, got %+v", segments)
	}
}

func TestFindSegmentsCustomCadence(t *testing.T) {
	segments, _, _ := FindSegments(context.Background(), nil, "in.wav", 100, Options{FallbackCadenceSeconds: 50})
	if len(segments) != 2 || segments[1].Start != 50 {
		t.Fatalf("unexpected cadence result: %+v", segments)
	}
}
