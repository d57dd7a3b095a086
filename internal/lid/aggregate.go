package lid

import (
	"context"

	"lingua/internal/language"
)

// Tier buckets the aggregated primary-language confidence for retag policy.
type Tier string

const (
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
	TierNoSpeech Tier = "no_speech"
)

// Params bound the aggregation loop. Thresholds compare inclusively: a share
// exactly equal to a threshold passes it.
type Params struct {
	EarlyExitThreshold    float64
	MinDurationBeforeExit float64
	ConfidenceHigh        float64
	ConfidenceMedium      float64
}

// SegmentFailure records one segment that produced no evidence.
type SegmentFailure struct {
	Slot   int       `json:"slot"`
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Result is the per-track detection decision. It is persisted to the sidecar
// and never recomputed by the correction pass.
type Result struct {
	PrimaryLanguage        string
	Confidence             float64
	Tier                   Tier
	Distribution           Distribution
	SpeechSegmentsFound    int
	SegmentsAnalyzed       int
	TotalSpeechDuration    float64
	SpeechAnalyzedDuration float64
	EarlyExit              bool
	SubtitleValidation     *Validation
	Failures               []SegmentFailure
}

// Aggregate classifies the selected segments in timeline order and folds their
// distributions into a single duration-weighted decision.
//
// Segments are processed strictly sequentially: the early-exit rule must
// observe the running aggregate before the next classification call is issued,
// which is the cost-saving point of budgeted sampling. A segment whose
// classification fails contributes no evidence but still counts toward the
// analyzed duration; it was paid for. Once the analyzed duration reaches
// params.MinDurationBeforeExit and the top language's share reaches
// params.EarlyExitThreshold, the remaining segments are never classified.
func Aggregate(ctx context.Context, segments []Selected, classify ClassifyFunc, params Params) Result {
	result := Result{
		SegmentsAnalyzed: len(segments),
	}
	accumulator := make(Distribution)

	for _, segment := range segments {
		inference := classify(ctx, segment)
		if inference.Failed() {
			result.Failures = append(result.Failures, SegmentFailure{
				Slot:   segment.Slot,
				Kind:   inference.Err,
				Detail: inference.Detail,
			})
		} else if len(inference.Distribution) > 0 {
			accumulator.AddWeighted(normalizeKeys(inference.Distribution), segment.Duration)
		} else if lang := language.ToISO3(inference.Language); lang != language.Undetermined {
			// Backend reported only a single language: treat it as the whole
			// probability mass for this segment.
			accumulator.AddWeighted(Distribution{lang: 1.0}, segment.Duration)
		}

		result.SpeechAnalyzedDuration += segment.Duration

		if result.SpeechAnalyzedDuration >= params.MinDurationBeforeExit && len(accumulator) > 0 {
			if _, share := accumulator.Top(); share >= params.EarlyExitThreshold {
				result.EarlyExit = true
				break
			}
		}
	}

	result.Distribution = accumulator.Normalized()
	if len(result.Distribution) == 0 {
		result.PrimaryLanguage = language.Undetermined
		result.Confidence = 0
		result.Tier = TierNoSpeech
		return result
	}

	result.PrimaryLanguage, result.Confidence = result.Distribution.Top()
	result.Tier = tierFor(result.Confidence, params)
	return result
}

func tierFor(confidence float64, params Params) Tier {
	switch {
	case confidence >= params.ConfidenceHigh:
		return TierHigh
	case confidence >= params.ConfidenceMedium:
		return TierMedium
	default:
		return TierLow
	}
}

func normalizeKeys(dist Distribution) Distribution {
	out := make(Distribution, len(dist))
	for lang, prob := range dist {
		normalized := language.ToISO3(lang)
		if normalized == language.Undetermined {
			continue
		}
		out[normalized] += prob
	}
	return out
}
