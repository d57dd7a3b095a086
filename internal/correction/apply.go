package correction

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ApplyOptions configures tag application.
type ApplyOptions struct {
	FFmpegBinary string
	// Timeout bounds the remux. Zero means 10 minutes; stream copy is fast
	// but large containers still take time to rewrite.
	Timeout time.Duration
}

// Apply rewrites the container's language tags with a stream copy. The output
// is written beside the source and renamed over it only after ffmpeg
// succeeds, so a failed remux never damages the original.
func Apply(ctx context.Context, plan Plan, opts ApplyOptions) error {
	if !plan.HasChanges() {
		return nil
	}
	binary := strings.TrimSpace(opts.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dir := filepath.Dir(plan.File)
	base := filepath.Base(plan.File)
	tmp := filepath.Join(dir, "."+base+".retag"+filepath.Ext(base))
	defer os.Remove(tmp)

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", plan.File,
		"-map", "0",
		"-c", "copy",
	}
	args = append(args, plan.MetadataArgs()...)
	args = append(args, "-max_muxing_queue_size", "9999", tmp)

	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg retag: %w: %s", err, strings.TrimSpace(string(output)))
	}

	if err := os.Rename(tmp, plan.File); err != nil {
		return fmt.Errorf("ffmpeg retag: replace original: %w", err)
	}
	return nil
}
