package lid

import "sort"

// Distribution maps language codes to probability mass. Keys are normalized to
// ISO 639-2 before insertion; values of a normalized distribution sum to 1.0
// within floating tolerance.
type Distribution map[string]float64

// NormalizeTolerance is the floating tolerance applied when checking that a
// normalized distribution sums to 1.0.
const NormalizeTolerance = 1e-6

// AddWeighted folds other into d, scaling every probability by weight.
func (d Distribution) AddWeighted(other Distribution, weight float64) {
	if weight <= 0 {
		return
	}
	for lang, prob := range other {
		if prob <= 0 {
			continue
		}
		d[lang] += prob * weight
	}
}

// TotalWeight returns the sum of all accumulated mass.
func (d Distribution) TotalWeight() float64 {
	total := 0.0
	for _, weight := range d {
		total += weight
	}
	return total
}

// Normalized returns a copy of d scaled so its values sum to 1.0. An empty or
// zero-weight distribution normalizes to nil.
func (d Distribution) Normalized() Distribution {
	total := d.TotalWeight()
	if total <= 0 {
		return nil
	}
	out := make(Distribution, len(d))
	for lang, weight := range d {
		out[lang] = weight / total
	}
	return out
}

// Top returns the language with the greatest mass and its share of the total.
// Ties break toward the lexicographically smallest code so repeated runs over
// identical evidence produce identical results. Returns ("", 0) when empty.
func (d Distribution) Top() (string, float64) {
	total := d.TotalWeight()
	if total <= 0 {
		return "", 0
	}
	best := ""
	bestWeight := 0.0
	for lang, weight := range d {
		if weight > bestWeight || (weight == bestWeight && (best == "" || lang < best)) {
			best = lang
			bestWeight = weight
		}
	}
	return best, bestWeight / total
}

// Languages returns the codes in descending order of mass, ties broken
// lexicographically.
func (d Distribution) Languages() []string {
	codes := make([]string, 0, len(d))
	for lang := range d {
		codes = append(codes, lang)
	}
	sort.Slice(codes, func(i, j int) bool {
		if d[codes[i]] != d[codes[j]] {
			return d[codes[i]] > d[codes[j]]
		}
		return codes[i] < codes[j]
	})
	return codes
}
