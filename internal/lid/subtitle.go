package lid

import (
	"sort"
	"strings"

	"lingua/internal/language"
	"lingua/internal/media/ffprobe"
)

// Validation records the outcome of cross-checking a detection against
// subtitle-track language priors.
type Validation struct {
	MatchingSubtitleFound bool
	SubtitleLanguages     []string
}

var commentaryKeywords = []string{
	"commentary",
	"director",
	"producer",
	"cast",
	"crew",
	"behind",
	"making",
}

// IsCommentaryTitle reports whether a stream title marks a commentary or
// making-of track. Such tracks carry no signal about the feature's spoken
// language and are excluded both from detection and from subtitle priors.
func IsCommentaryTitle(title string) bool {
	lowered := strings.ToLower(title)
	for _, keyword := range commentaryKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// CollectSubtitlePriors derives the set of language priors from the subtitle
// streams of a container, normalized to ISO 639-2 and deduplicated.
// Commentary-titled and untagged subtitle tracks contribute nothing.
func CollectSubtitlePriors(streams []ffprobe.Stream) map[string]struct{} {
	codes := make([]string, 0, len(streams))
	for _, stream := range streams {
		if IsCommentaryTitle(stream.Title()) {
			continue
		}
		if lang := stream.Language(); lang != "" {
			codes = append(codes, lang)
		}
	}
	return language.NormalizeSet(codes)
}

// ValidateAgainstSubtitles checks the primary language against the prior set.
// Returns nil when no priors exist, so the sidecar records the absence of the
// signal rather than a vacuous mismatch.
func ValidateAgainstSubtitles(primaryLanguage string, priors map[string]struct{}) *Validation {
	if len(priors) == 0 {
		return nil
	}
	languages := make([]string, 0, len(priors))
	for lang := range priors {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	normalized := language.ToISO3(primaryLanguage)
	_, found := priors[normalized]
	return &Validation{
		MatchingSubtitleFound: found && normalized != language.Undetermined,
		SubtitleLanguages:     languages,
	}
}

// PromoteTier raises a medium-confidence tier to high when a matching subtitle
// corroborates the detection. Subtitle priors only ever corroborate; they
// never override the audio-derived decision.
func PromoteTier(tier Tier, validation *Validation) Tier {
	if validation != nil && validation.MatchingSubtitleFound && tier == TierMedium {
		return TierHigh
	}
	return tier
}
