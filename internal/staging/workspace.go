// Package staging manages the scratch directories a detection run writes
// extracted audio into. Each run gets its own namespace, with one subtree per
// media file inside it, so concurrent runs and files within a run never
// collide. CleanStale reclaims directories left behind by crashed runs.
package staging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Workspace is the scratch area for one detection run.
type Workspace struct {
	// RunID is the unique identifier of the run, also used in the catalog.
	RunID string
	// Root is the run's directory under the configured staging dir.
	Root string

	keep bool
}

// NewRun creates a fresh workspace under stagingDir.
func NewRun(stagingDir string) (*Workspace, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, fmt.Errorf("staging: directory not configured")
	}
	runID := uuid.NewString()
	root := filepath.Join(stagingDir, "run-"+runID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create run directory: %w", err)
	}
	return &Workspace{RunID: runID, Root: root}, nil
}

// Keep disables cleanup, leaving extracted audio behind for inspection.
func (w *Workspace) Keep() {
	w.keep = true
}

// FileSpace is the subtree of a run workspace holding one media file's
// extracted audio. Keying the subtree by the media path keeps clips from
// different files apart even within a single run.
type FileSpace struct {
	root string
	keep bool
}

// ForFile returns the workspace subtree for one media file. The directory name
// is derived from a hash of the path so any path is filesystem-safe.
func (w *Workspace) ForFile(mediaPath string) *FileSpace {
	sum := sha256.Sum256([]byte(mediaPath))
	return &FileSpace{
		root: filepath.Join(w.Root, "file-"+hex.EncodeToString(sum[:8])),
		keep: w.keep,
	}
}

// TrackDir returns (creating it if needed) the directory for one audio track,
// keyed by container stream index.
func (f *FileSpace) TrackDir(streamIndex int) (string, error) {
	dir := filepath.Join(f.root, fmt.Sprintf("track-%d", streamIndex))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("staging: create track directory: %w", err)
	}
	return dir, nil
}

// TrackWAV returns the path for a track's full-length extracted audio.
func (f *FileSpace) TrackWAV(streamIndex int) string {
	return filepath.Join(f.root, fmt.Sprintf("track-%d", streamIndex), "audio.wav")
}

// SegmentWAV returns the path for one selected segment's clip.
func (f *FileSpace) SegmentWAV(streamIndex, slot int) string {
	return filepath.Join(f.root, fmt.Sprintf("track-%d", streamIndex), fmt.Sprintf("segment-%02d.wav", slot))
}

// Remove deletes the file's subtree once its sidecar is written, unless the
// run was asked to keep staging.
func (f *FileSpace) Remove() error {
	if f.keep {
		return nil
	}
	if err := os.RemoveAll(f.root); err != nil {
		return fmt.Errorf("staging: remove %s: %w", f.root, err)
	}
	return nil
}

// Cleanup removes the workspace unless Keep was called.
func (w *Workspace) Cleanup() error {
	if w.keep {
		return nil
	}
	if err := os.RemoveAll(w.Root); err != nil {
		return fmt.Errorf("staging: cleanup %s: %w", w.Root, err)
	}
	return nil
}
