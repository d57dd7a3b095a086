// Package detection orchestrates the per-file identification pipeline:
// probe the container, extract each audio track, find speech, sample
// segments under the time budget, classify them, aggregate a decision, and
// persist it to the sidecar and catalog. Tracks of one file run concurrently
// under a bounded worker group; files run sequentially.
package detection
