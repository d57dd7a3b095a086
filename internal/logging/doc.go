// Package logging wraps log/slog with the repository's handler setup: a
// console handler that renders flattened key=value lines and a JSON handler
// for machine consumption. Components always log through a *slog.Logger so
// tests can swap in NewNop.
package logging
