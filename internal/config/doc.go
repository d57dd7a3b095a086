// Package config loads, normalizes, and validates the TOML configuration
// file. Numeric detection settings are clamped to safe operating ranges
// during normalization rather than rejected, so a hand-edited file with an
// out-of-range threshold still produces a usable run.
package config
