// Package ffprobe wraps ffprobe invocation and exposes the container metadata
// the detection pipeline needs: audio and subtitle streams, their tags, and
// container duration.
package ffprobe
