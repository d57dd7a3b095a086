// Package extract drives ffmpeg to pull track audio into WAV files the VAD
// and classifier consume. All output is mono 16kHz pcm_s16le; for 5.1/7.1
// sources the center channel can be isolated first, since dialogue lives
// there and music/effects dominate the full downmix.
package extract

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"lingua/internal/media/ffprobe"
)

// Options configures track extraction.
type Options struct {
	// FFmpegBinary is the executable name; empty means "ffmpeg" on PATH.
	FFmpegBinary string
	// PreferCenterChannel isolates the FC channel on multichannel sources.
	PreferCenterChannel bool
}

func (o Options) binary() string {
	if strings.TrimSpace(o.FFmpegBinary) == "" {
		return "ffmpeg"
	}
	return o.FFmpegBinary
}

// CenterChannelEligible reports whether a stream carries a dedicated center
// channel worth isolating.
func CenterChannelEligible(stream ffprobe.Stream) bool {
	if stream.Channels >= 5 {
		return true
	}
	layout := strings.ToLower(stream.ChannelLayout)
	return strings.Contains(layout, "5.1") || strings.Contains(layout, "7.1")
}

// TrackAudio extracts one audio track to a mono 16kHz WAV. streamIndex is the
// container stream index. When the center channel is preferred and the stream
// qualifies, the FC channel is panned out; if that pass fails, extraction
// falls back to the plain downmix.
func TrackAudio(ctx context.Context, opts Options, source string, stream ffprobe.Stream, dest string) error {
	if stream.Index < 0 {
		return fmt.Errorf("extract audio: invalid stream index %d", stream.Index)
	}
	if opts.PreferCenterChannel && CenterChannelEligible(stream) {
		if err := runFFmpeg(ctx, opts.binary(), trackArgs(source, stream.Index, dest, true)); err == nil {
			return nil
		}
	}
	return runFFmpeg(ctx, opts.binary(), trackArgs(source, stream.Index, dest, false))
}

// Segment extracts a time range from an already-extracted WAV. start and
// duration are in seconds.
func Segment(ctx context.Context, opts Options, source string, start, duration float64, dest string) error {
	if duration <= 0 {
		return fmt.Errorf("extract segment: invalid duration %g", duration)
	}
	if start < 0 {
		start = 0
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-i", source,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	return runFFmpeg(ctx, opts.binary(), args)
}

func trackArgs(source string, streamIndex int, dest string, centerChannel bool) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-vn",
		"-sn",
		"-dn",
	}
	if centerChannel {
		args = append(args, "-af", "pan=mono|c0=FC")
	} else {
		args = append(args, "-ac", "1")
	}
	args = append(args,
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	)
	return args
}

func formatSeconds(value float64) string {
	return fmt.Sprintf("%.3f", value)
}

func runFFmpeg(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
