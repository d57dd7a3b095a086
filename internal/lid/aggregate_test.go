package lid

import (
	"context"
	"math"
	"math/rand"
	"testing"
)

func testParams() Params {
	return Params{
		EarlyExitThreshold:    0.85,
		MinDurationBeforeExit: 30,
		ConfidenceHigh:        0.80,
		ConfidenceMedium:      0.55,
	}
}

func distClassifier(results map[int]Inference) ClassifyFunc {
	return func(ctx context.Context, segment Selected) Inference {
		return results[segment.Slot]
	}
}

func TestAggregateWeightsByDuration(t *testing.T) {
	segments := []Selected{
		{Segment: Segment{Start: 0, Duration: 10}, Slot: 0},
		{Segment: Segment{Start: 100, Duration: 30}, Slot: 1},
	}
	classify := distClassifier(map[int]Inference{
		0: {Distribution: Distribution{"en": 1.0}},
		1: {Distribution: Distribution{"ja": 1.0}},
	})
	params := testParams()
	params.EarlyExitThreshold = 1.1 // disabled

	result := Aggregate(context.Background(), segments, classify, params)
	if result.PrimaryLanguage != "jpn" {
		t.Fatalf("primary = %q, want jpn", result.PrimaryLanguage)
	}
	if math.Abs(result.Confidence-0.75) > NormalizeTolerance {
		t.Fatalf("confidence = %v, want 0.75", result.Confidence)
	}
	if result.Distribution["eng"] != 0.25 {
		t.Fatalf("eng share = %v, want 0.25", result.Distribution["eng"])
	}
}

func TestAggregateOrderInvariantWithoutEarlyExit(t *testing.T) {
	base := []Selected{
		{Segment: Segment{Start: 0, Duration: 7}, Slot: 0},
		{Segment: Segment{Start: 50, Duration: 13}, Slot: 1},
		{Segment: Segment{Start: 200, Duration: 5}, Slot: 2},
		{Segment: Segment{Start: 900, Duration: 11}, Slot: 3},
	}
	inferences := map[int]Inference{
		0: {Distribution: Distribution{"en": 0.7, "fr": 0.3}},
		1: {Distribution: Distribution{"en": 0.4, "ja": 0.6}},
		2: {Language: "en"},
		3: {Distribution: Distribution{"ja": 0.9, "en": 0.1}},
	}
	params := testParams()
	params.EarlyExitThreshold = 1.1 // disabled so ordering cannot truncate

	reference := Aggregate(context.Background(), base, distClassifier(inferences), params)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]Selected, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := Aggregate(context.Background(), shuffled, distClassifier(inferences), params)
		if got.PrimaryLanguage != reference.PrimaryLanguage {
			t.Fatalf("trial %d: primary %q != %q", trial, got.PrimaryLanguage, reference.PrimaryLanguage)
		}
		for lang, share := range reference.Distribution {
			if math.Abs(got.Distribution[lang]-share) > NormalizeTolerance {
				t.Fatalf("trial %d: share[%s] = %v, want %v", trial, lang, got.Distribution[lang], share)
			}
		}
	}
}

func TestAggregateEarlyExitRespectsMinimumDuration(t *testing.T) {
	// Six 10s segments all voting the same language. Exit may fire only once
	// 30s have been analyzed, so exactly three classifier calls must occur.
	segments := make([]Selected, 6)
	for i := range segments {
		segments[i] = Selected{Segment: Segment{Start: float64(i * 100), Duration: 10}, Slot: i}
	}
	calls := 0
	classify := func(ctx context.Context, segment Selected) Inference {
		calls++
		return Inference{Distribution: Distribution{"en": 1.0}}
	}

	result := Aggregate(context.Background(), segments, classify, testParams())
	if !result.EarlyExit {
		t.Fatal("expected early exit")
	}
	if calls != 3 {
		t.Fatalf("classifier called %d times, want 3 (exit gated on 30s analyzed)", calls)
	}
	if result.SpeechAnalyzedDuration != 30 {
		t.Fatalf("analyzed = %v, want 30", result.SpeechAnalyzedDuration)
	}
}

func TestAggregateEarlyExitThresholdInclusive(t *testing.T) {
	segments := []Selected{
		{Segment: Segment{Start: 0, Duration: 30}, Slot: 0},
		{Segment: Segment{Start: 100, Duration: 30}, Slot: 1},
	}
	calls := 0
	classify := func(ctx context.Context, segment Selected) Inference {
		calls++
		return Inference{Distribution: Distribution{"en": 0.85, "fr": 0.15}}
	}
	params := testParams()
	params.EarlyExitThreshold = 0.85

	result := Aggregate(context.Background(), segments, classify, params)
	if !result.EarlyExit || calls != 1 {
		t.Fatalf("share exactly at threshold should exit: exit=%v calls=%d", result.EarlyExit, calls)
	}
}

func TestAggregateSkipsFailedSegments(t *testing.T) {
	segments := []Selected{
		{Segment: Segment{Start: 0, Duration: 10}, Slot: 0},
		{Segment: Segment{Start: 100, Duration: 10}, Slot: 1},
	}
	classify := distClassifier(map[int]Inference{
		0: {Err: ErrorClassificationFailed, Detail: "timeout"},
		1: {Distribution: Distribution{"en": 1.0}},
	})
	params := testParams()
	params.EarlyExitThreshold = 1.1

	result := Aggregate(context.Background(), segments, classify, params)
	if result.PrimaryLanguage != "eng" {
		t.Fatalf("primary = %q, want eng", result.PrimaryLanguage)
	}
	if result.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0 (failed segment contributes no evidence)", result.Confidence)
	}
	if len(result.Failures) != 1 || result.Failures[0].Kind != ErrorClassificationFailed {
		t.Fatalf("failures = %+v", result.Failures)
	}
	if result.SpeechAnalyzedDuration != 20 {
		t.Fatalf("analyzed = %v, want 20", result.SpeechAnalyzedDuration)
	}
}

func TestAggregateDegenerateFallbackSingleLanguage(t *testing.T) {
	segments := []Selected{
		{Segment: Segment{Start: 0, Duration: 10}, Slot: 0},
	}
	classify := distClassifier(map[int]Inference{
		0: {Language: "ja"},
	})
	result := Aggregate(context.Background(), segments, classify, testParams())
	if result.PrimaryLanguage != "jpn" || result.Confidence != 1.0 {
		t.Fatalf("got %q/%v, want jpn/1.0", result.PrimaryLanguage, result.Confidence)
	}
}

func TestAggregateNoEvidence(t *testing.T) {
	segments := []Selected{
		{Segment: Segment{Start: 0, Duration: 10}, Slot: 0},
	}
	classify := distClassifier(map[int]Inference{
		0: {Err: ErrorClassificationFailed},
	})
	result := Aggregate(context.Background(), segments, classify, testParams())
	if result.PrimaryLanguage != "und" {
		t.Fatalf("primary = %q, want und", result.PrimaryLanguage)
	}
	if result.Confidence != 0 || result.Tier != TierNoSpeech {
		t.Fatalf("got %v/%s, want 0/no_speech", result.Confidence, result.Tier)
	}
}

func TestTierThresholdsInclusive(t *testing.T) {
	params := testParams()
	tests := []struct {
		confidence float64
		expected   Tier
	}{
		{0.95, TierHigh},
		{0.80, TierHigh}, // exact threshold passes
		{0.79, TierMedium},
		{0.55, TierMedium}, // exact threshold passes
		{0.54, TierLow},
		{0.0, TierLow},
	}
	for _, tt := range tests {
		if got := tierFor(tt.confidence, params); got != tt.expected {
			t.Errorf("tierFor(%v) = %s, want %s", tt.confidence, got, tt.expected)
		}
	}
}

func TestAggregateNormalizesTwoLetterCodes(t *testing.T) {
	segments := []Selected{
		{Segment: Segment{Start: 0, Duration: 10}, Slot: 0},
		{Segment: Segment{Start: 50, Duration: 10}, Slot: 1},
	}
	// One backend reports "en", another "eng"; both must merge into one key.
	classify := distClassifier(map[int]Inference{
		0: {Distribution: Distribution{"en": 1.0}},
		1: {Distribution: Distribution{"eng": 1.0}},
	})
	params := testParams()
	params.EarlyExitThreshold = 1.1
	result := Aggregate(context.Background(), segments, classify, params)
	if len(result.Distribution) != 1 {
		t.Fatalf("expected merged distribution, got %v", result.Distribution)
	}
	if result.PrimaryLanguage != "eng" || result.Confidence != 1.0 {
		t.Fatalf("got %q/%v", result.PrimaryLanguage, result.Confidence)
	}
}
