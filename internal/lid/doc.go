// Package lid implements the spoken-language identification core: selecting a
// budget-bounded, time-distributed subset of speech segments, folding
// per-segment language probability distributions into a duration-weighted
// running aggregate with an early-exit stopping rule, and cross-validating the
// final decision against subtitle-track language priors.
package lid
