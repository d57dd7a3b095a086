package lid

import (
	"math"
	"sort"
)

// Segment is a speech interval located by voice activity detection, in seconds
// from the start of the track. Segments are ordered by Start and do not
// overlap.
type Segment struct {
	Start    float64
	Duration float64
}

// End returns the exclusive end of the segment in seconds.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Selected is a segment chosen for classification. Slot records which time
// slot produced it; it exists only for distribution bookkeeping and logging.
type Selected struct {
	Segment
	Slot int
}

// TotalDuration sums the durations of the provided segments.
func TotalDuration(segments []Segment) float64 {
	total := 0.0
	for _, segment := range segments {
		total += segment.Duration
	}
	return total
}

// SelectSegments picks a budget-bounded, temporally distributed subset of the
// speech segments. When the available speech fits within targetDuration every
// segment is returned unchanged. Otherwise the track is partitioned into
// min(8, ceil(target/15)) equal time slots and the longest segment starting in
// each slot is taken, clipped to the remaining budget. Slots with no speech
// contribute nothing; sampling never front-loads the track, because opening
// minutes are disproportionately intros and trailers.
func SelectSegments(segments []Segment, targetDuration, totalTrackDuration float64) []Selected {
	if len(segments) == 0 {
		return nil
	}

	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	if TotalDuration(sorted) <= targetDuration {
		selected := make([]Selected, len(sorted))
		for i, segment := range sorted {
			selected[i] = Selected{Segment: segment, Slot: i}
		}
		return selected
	}

	slots := int(math.Min(8, math.Ceil(targetDuration/15)))
	if slots < 1 {
		slots = 1
	}
	if totalTrackDuration <= 0 {
		totalTrackDuration = sorted[len(sorted)-1].End()
	}
	slotDuration := totalTrackDuration / float64(slots)

	selected := make([]Selected, 0, slots)
	remaining := targetDuration
	for slot := 0; slot < slots && remaining > 0; slot++ {
		slotStart := float64(slot) * slotDuration
		slotEnd := slotStart + slotDuration

		best := Segment{}
		found := false
		for _, segment := range sorted {
			if segment.Start < slotStart || segment.Start >= slotEnd {
				continue
			}
			if !found || segment.Duration > best.Duration {
				best = segment
				found = true
			}
		}
		if !found {
			continue
		}

		duration := math.Min(best.Duration, remaining)
		selected = append(selected, Selected{
			Segment: Segment{Start: best.Start, Duration: duration},
			Slot:    slot,
		})
		remaining -= duration
	}
	return selected
}
