// Package services defines shared utilities consumed by the detection
// pipeline and its external tool integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (configuration vs external tool vs timeout) uniform
//     across commands.
//   - Context helpers that stamp run and file identifiers for logging.
package services
