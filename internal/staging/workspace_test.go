package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lingua/internal/logging"
)

func TestNewRunCreatesNamespacedDirectory(t *testing.T) {
	base := t.TempDir()
	ws, err := NewRun(base)
	if err != nil {
		t.Fatalf("new run: %v", err)
	}
	if ws.RunID == "" {
		t.Fatal("run id should be set")
	}
	if !strings.HasPrefix(filepath.Base(ws.Root), "run-") {
		t.Fatalf("root = %q", ws.Root)
	}
	if _, err := os.Stat(ws.Root); err != nil {
		t.Fatalf("root not created: %v", err)
	}

	other, err := NewRun(base)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if other.Root == ws.Root {
		t.Fatal("runs must not share directories")
	}
}

func TestNewRunRequiresDirectory(t *testing.T) {
	if _, err := NewRun("  "); err == nil {
		t.Fatal("expected error for empty staging dir")
	}
}

func TestTrackAndSegmentPaths(t *testing.T) {
	ws, err := NewRun(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fs := ws.ForFile("/media/movie.mkv")
	dir, err := fs.TrackDir(3)
	if err != nil {
		t.Fatalf("track dir: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("track dir not created: %v", err)
	}
	if !strings.HasPrefix(dir, ws.Root) {
		t.Fatalf("track dir %q not under run root %q", dir, ws.Root)
	}
	if got := fs.TrackWAV(3); filepath.Dir(got) != dir {
		t.Fatalf("track wav %q not under %q", got, dir)
	}
	if got := fs.SegmentWAV(3, 7); !strings.HasSuffix(got, "segment-07.wav") {
		t.Fatalf("segment wav = %q", got)
	}
}

func TestFileSpacesDoNotCollide(t *testing.T) {
	ws, err := NewRun(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	a := ws.ForFile("/media/a.mkv")
	b := ws.ForFile("/media/b.mkv")
	if a.TrackWAV(1) == b.TrackWAV(1) {
		t.Fatal("clips from different files must not share paths")
	}
	if a.TrackWAV(1) != ws.ForFile("/media/a.mkv").TrackWAV(1) {
		t.Fatal("the same file must map to the same subtree")
	}
}

func TestFileSpaceRemove(t *testing.T) {
	ws, err := NewRun(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fs := ws.ForFile("/media/a.mkv")
	dir, err := fs.TrackDir(0)
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("file subtree should be gone, stat err = %v", err)
	}
	if _, err := os.Stat(ws.Root); err != nil {
		t.Fatalf("run root should survive: %v", err)
	}

	ws.Keep()
	kept := ws.ForFile("/media/b.mkv")
	keptDir, err := kept.TrackDir(0)
	if err != nil {
		t.Fatal(err)
	}
	if err := kept.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(keptDir); err != nil {
		t.Fatalf("kept subtree should survive: %v", err)
	}
}

func TestCleanupRemovesWorkspace(t *testing.T) {
	ws, err := NewRun(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.ForFile("/media/movie.mkv").TrackDir(0); err != nil {
		t.Fatal(err)
	}
	if err := ws.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Fatalf("root should be gone, stat err = %v", err)
	}
}

func TestKeepDisablesCleanup(t *testing.T) {
	ws, err := NewRun(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ws.Keep()
	if err := ws.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(ws.Root); err != nil {
		t.Fatalf("root should survive: %v", err)
	}
}

func TestCleanStaleRemovesOldRunsOnly(t *testing.T) {
	base := t.TempDir()

	stale := filepath.Join(base, "run-stale")
	fresh := filepath.Join(base, "run-fresh")
	unrelated := filepath.Join(base, "other")
	for _, dir := range []string{stale, fresh, unrelated} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(unrelated, old, old); err != nil {
		t.Fatal(err)
	}

	result := CleanStale(base, 24*time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != stale {
		t.Fatalf("removed = %v", result.Removed)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatal("fresh run should survive")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatal("non-run directories are out of scope")
	}
}

func TestCleanStaleMissingDir(t *testing.T) {
	result := CleanStale(filepath.Join(t.TempDir(), "nope"), time.Hour, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v", result)
	}
}
