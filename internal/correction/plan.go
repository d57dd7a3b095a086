package correction

import (
	"fmt"

	"golang.org/x/text/cases"
	textlanguage "golang.org/x/text/language"

	"lingua/internal/language"
	"lingua/internal/media/ffprobe"
	"lingua/internal/sidecar"
)

var titleCaser = cases.Title(textlanguage.English)

// Plan is the full set of per-track decisions for one file plus the ffmpeg
// metadata arguments implementing the applies.
type Plan struct {
	File      string
	Decisions []Decision
}

// BuildPlan evaluates the policy for every audio track in the container.
// Audio ordinals are re-derived from the probe, not the sidecar: sidecar
// results are keyed by container stream index while tag edits address tracks
// by their position among audio streams only.
func BuildPlan(doc sidecar.Document, probe ffprobe.Result, policy Policy) Plan {
	plan := Plan{File: doc.File}
	for ordinal, stream := range probe.AudioStreams() {
		record, ok := doc.Results[sidecar.StreamIndex(stream.Index)]
		if !ok {
			plan.Decisions = append(plan.Decisions, Decision{
				Index:      sidecar.StreamIndex(stream.Index),
				Ordinal:    sidecar.AudioOrdinal(ordinal),
				Reason:     ReasonNoDetectionRecorded,
				CurrentTag: stream.Language(),
			})
			continue
		}
		decision := Decide(record, stream.Language(), policy)
		decision.Index = sidecar.StreamIndex(stream.Index)
		decision.Ordinal = sidecar.AudioOrdinal(ordinal)
		plan.Decisions = append(plan.Decisions, decision)
	}
	return plan
}

// HasChanges reports whether any track needs a retag.
func (p Plan) HasChanges() bool {
	for _, decision := range p.Decisions {
		if decision.ShouldApply {
			return true
		}
	}
	return false
}

// MetadataArgs returns the ffmpeg -metadata arguments for the applying
// decisions. Mixed-evidence tracks get a display title carrying the language
// name and a "(mixed)" annotation; that is presentation only, never a
// rejection.
func (p Plan) MetadataArgs() []string {
	args := make([]string, 0, len(p.Decisions)*4)
	for _, decision := range p.Decisions {
		if !decision.ShouldApply {
			continue
		}
		selector := fmt.Sprintf("-metadata:s:a:%d", decision.Ordinal)
		args = append(args, selector, "language="+decision.TargetLanguage)
		if iso2 := language.ToISO2(decision.TargetLanguage); iso2 != "" {
			args = append(args, selector, "language-ietf="+iso2)
		}
		if decision.Mixed {
			args = append(args, selector, "title="+mixedTitle(decision.TargetLanguage))
		}
	}
	return args
}

func mixedTitle(code string) string {
	name := language.DisplayName(code)
	if !language.Known(code) {
		name = titleCaser.String(name)
	}
	return name + " (mixed)"
}
