// Package correction turns persisted detection results into tag-edit
// decisions. It never re-runs inference: everything is driven by the sidecar
// written at detection time and the container's current tags.
package correction

import (
	"lingua/internal/language"
	"lingua/internal/lid"
	"lingua/internal/sidecar"
)

// Reason explains a correction decision. Rejections, no-ops, and applies carry
// distinct codes so downstream reporting can tell them apart.
type Reason string

const (
	ReasonRetag               Reason = "retag"
	ReasonAlreadyCorrect      Reason = "already_correct"
	ReasonSkippedAtDetection  Reason = "skipped_at_detection"
	ReasonDetectionError      Reason = "detection_error"
	ReasonUndetermined        Reason = "undetermined"
	ReasonLowConfidence       Reason = "low_confidence"
	ReasonNotHighConfidence   Reason = "not_high_confidence"
	ReasonNoSubtitleBacking   Reason = "no_subtitle_validation"
	ReasonUnmappedLanguage    Reason = "unmapped_language"
	ReasonNoDetectionRecorded Reason = "no_detection_recorded"
)

// Policy gates retagging. Threshold comparisons are inclusive: a value exactly
// at a bound passes it. The ambiguous band is half-open, [Low, High).
type Policy struct {
	MinConfidence           float64
	RequireHighConfidence   bool
	PreferSubtitleValidated bool
	AmbiguousLow            float64
	AmbiguousHigh           float64
}

// Decision is the per-track outcome of the policy pass.
type Decision struct {
	Index          sidecar.StreamIndex
	Ordinal        sidecar.AudioOrdinal
	ShouldApply    bool
	Reason         Reason
	TargetLanguage string
	CurrentTag     string
	Mixed          bool
}

// Decide evaluates one track's persisted record against its current tag.
// Legacy (v1) records bypass every confidence gate: they predate confidence
// scoring and were written as always-apply.
func Decide(record sidecar.TrackRecord, currentTag string, policy Policy) Decision {
	decision := Decision{CurrentTag: currentTag}

	switch {
	case record.Skipped:
		decision.Reason = ReasonSkippedAtDetection
		return decision
	case record.Error != "":
		decision.Reason = ReasonDetectionError
		return decision
	case record.Detection == nil:
		decision.Reason = ReasonNoDetectionRecorded
		return decision
	}

	detection := record.Detection
	detected := language.ToISO3(detection.Language)
	if detected == language.Undetermined {
		decision.Reason = ReasonUndetermined
		return decision
	}
	// Pass-through codes that are not 3 letters have no valid destination tag.
	if !language.Known(detected) && len(detected) != 3 {
		decision.Reason = ReasonUnmappedLanguage
		return decision
	}

	if !record.Legacy {
		if detection.Confidence < policy.MinConfidence {
			decision.Reason = ReasonLowConfidence
			return decision
		}
		if policy.RequireHighConfidence && detection.Tier != string(lid.TierHigh) {
			decision.Reason = ReasonNotHighConfidence
			return decision
		}
		if policy.PreferSubtitleValidated && detection.Tier == string(lid.TierMedium) &&
			(detection.SubtitleValidation == nil || !detection.SubtitleValidation.MatchingSubtitleFound) {
			decision.Reason = ReasonNoSubtitleBacking
			return decision
		}
	}

	if language.Equivalent(detected, currentTag) {
		decision.Reason = ReasonAlreadyCorrect
		return decision
	}

	decision.ShouldApply = true
	decision.Reason = ReasonRetag
	decision.TargetLanguage = detected
	if !record.Legacy {
		decision.Mixed = detection.Confidence >= policy.AmbiguousLow && detection.Confidence < policy.AmbiguousHigh
	}
	return decision
}
