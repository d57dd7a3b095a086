package correction

import (
	"testing"

	"lingua/internal/sidecar"
)

func defaultPolicy() Policy {
	return Policy{
		MinConfidence:           0.55,
		RequireHighConfidence:   false,
		PreferSubtitleValidated: false,
		AmbiguousLow:            0.55,
		AmbiguousHigh:           0.70,
	}
}

func detectionRecord(det sidecar.Detection) sidecar.TrackRecord {
	return sidecar.TrackRecord{Detection: &det}
}

func TestDecideHighConfidenceRetag(t *testing.T) {
	record := detectionRecord(sidecar.Detection{Language: "jpn", Confidence: 0.9, Tier: "high"})
	decision := Decide(record, "eng", defaultPolicy())
	if !decision.ShouldApply {
		t.Fatalf("expected apply, got %+v", decision)
	}
	if decision.TargetLanguage != "jpn" || decision.Reason != ReasonRetag {
		t.Fatalf("unexpected decision %+v", decision)
	}
	if decision.Mixed {
		t.Fatal("0.9 confidence must not be in the mixed band")
	}
}

func TestDecideLowConfidenceRejected(t *testing.T) {
	record := detectionRecord(sidecar.Detection{Language: "jpn", Confidence: 0.5, Tier: "low"})
	decision := Decide(record, "eng", defaultPolicy())
	if decision.ShouldApply {
		t.Fatalf("expected rejection, got %+v", decision)
	}
	if decision.Reason != ReasonLowConfidence {
		t.Fatalf("reason = %s, want %s", decision.Reason, ReasonLowConfidence)
	}
}

func TestDecideExactMinConfidencePasses(t *testing.T) {
	// Inclusive convention: confidence exactly at the threshold is accepted.
	record := detectionRecord(sidecar.Detection{Language: "jpn", Confidence: 0.55, Tier: "medium"})
	decision := Decide(record, "eng", defaultPolicy())
	if !decision.ShouldApply {
		t.Fatalf("expected apply at exact threshold, got %+v", decision)
	}
	if !decision.Mixed {
		t.Fatal("confidence 0.55 lies in the mixed band [0.55, 0.70)")
	}
}

func TestDecideMediumWithoutSubtitleBackingRejected(t *testing.T) {
	policy := defaultPolicy()
	policy.PreferSubtitleValidated = true
	record := detectionRecord(sidecar.Detection{Language: "jpn", Confidence: 0.6, Tier: "medium"})
	decision := Decide(record, "eng", policy)
	if decision.ShouldApply {
		t.Fatalf("expected rejection, got %+v", decision)
	}
	if decision.Reason != ReasonNoSubtitleBacking {
		t.Fatalf("reason = %s", decision.Reason)
	}

	record.Detection.SubtitleValidation = &sidecar.Validation{MatchingSubtitleFound: true}
	decision = Decide(record, "eng", policy)
	if !decision.ShouldApply {
		t.Fatalf("expected apply with subtitle backing, got %+v", decision)
	}
}

func TestDecideRequireHighConfidence(t *testing.T) {
	policy := defaultPolicy()
	policy.RequireHighConfidence = true
	record := detectionRecord(sidecar.Detection{Language: "jpn", Confidence: 0.7, Tier: "medium"})
	decision := Decide(record, "eng", policy)
	if decision.ShouldApply || decision.Reason != ReasonNotHighConfidence {
		t.Fatalf("unexpected decision %+v", decision)
	}
}

func TestDecideAlreadyCorrect(t *testing.T) {
	record := detectionRecord(sidecar.Detection{Language: "en", Confidence: 0.9, Tier: "high"})
	decision := Decide(record, "eng", defaultPolicy())
	if decision.ShouldApply {
		t.Fatalf("expected no-op, got %+v", decision)
	}
	if decision.Reason != ReasonAlreadyCorrect {
		t.Fatalf("reason = %s, want distinct already-correct code", decision.Reason)
	}
}

func TestDecideSkippedAndErrored(t *testing.T) {
	decision := Decide(sidecar.TrackRecord{Skipped: true, SkipReason: "commentary_track"}, "eng", defaultPolicy())
	if decision.ShouldApply || decision.Reason != ReasonSkippedAtDetection {
		t.Fatalf("unexpected decision %+v", decision)
	}
	decision = Decide(sidecar.TrackRecord{Error: "processing_failed"}, "eng", defaultPolicy())
	if decision.ShouldApply || decision.Reason != ReasonDetectionError {
		t.Fatalf("unexpected decision %+v", decision)
	}
}

func TestDecideUndetermined(t *testing.T) {
	record := detectionRecord(sidecar.Detection{Language: "und", Confidence: 0.9, Tier: "high"})
	decision := Decide(record, "eng", defaultPolicy())
	if decision.ShouldApply || decision.Reason != ReasonUndetermined {
		t.Fatalf("unexpected decision %+v", decision)
	}
}

func TestDecideUnmappedLanguage(t *testing.T) {
	// A 2-letter code outside the table passes normalization unchanged but has
	// no 3-letter destination tag.
	record := detectionRecord(sidecar.Detection{Language: "xq", Confidence: 0.9, Tier: "high"})
	decision := Decide(record, "eng", defaultPolicy())
	if decision.ShouldApply || decision.Reason != ReasonUnmappedLanguage {
		t.Fatalf("unexpected decision %+v", decision)
	}

	// Unknown 3-letter codes pass through and are usable tags.
	record = detectionRecord(sidecar.Detection{Language: "xyz", Confidence: 0.9, Tier: "high"})
	decision = Decide(record, "eng", defaultPolicy())
	if !decision.ShouldApply || decision.TargetLanguage != "xyz" {
		t.Fatalf("unexpected decision %+v", decision)
	}
}

func TestDecideLegacyAlwaysApply(t *testing.T) {
	record := sidecar.TrackRecord{
		Legacy:    true,
		Detection: &sidecar.Detection{Language: "ja"},
	}
	decision := Decide(record, "eng", defaultPolicy())
	if !decision.ShouldApply {
		t.Fatalf("legacy record must bypass confidence gates, got %+v", decision)
	}
	if decision.TargetLanguage != "jpn" {
		t.Fatalf("target = %q, want jpn", decision.TargetLanguage)
	}
	if decision.Mixed {
		t.Fatal("legacy records carry no share, must not be mixed")
	}

	decision = Decide(record, "jpn", defaultPolicy())
	if decision.ShouldApply || decision.Reason != ReasonAlreadyCorrect {
		t.Fatalf("legacy already-correct must still no-op, got %+v", decision)
	}
}

func TestDecideMixedBandBoundaries(t *testing.T) {
	tests := []struct {
		confidence float64
		mixed      bool
	}{
		{0.55, true}, // inclusive lower bound
		{0.60, true},
		{0.6999, true},
		{0.70, false}, // exclusive upper bound
		{0.90, false},
	}
	for _, tt := range tests {
		record := detectionRecord(sidecar.Detection{Language: "jpn", Confidence: tt.confidence, Tier: "high"})
		decision := Decide(record, "eng", defaultPolicy())
		if decision.Mixed != tt.mixed {
			t.Errorf("confidence %v: mixed = %v, want %v", tt.confidence, decision.Mixed, tt.mixed)
		}
	}
}
