package collection

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"go.senan.xyz/taglib"

	"songresolve/internal/source"
)

func TestFindAudioFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "Artist", "Album")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"01.mp3", "02.FLAC", "cover.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(sub, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := FindAudioFiles(dir)
	if err != nil {
		t.Fatalf("FindAudioFiles: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("found %v, want the two audio files", files)
	}
}

func TestFindAudioFilesErrors(t *testing.T) {
	if _, err := FindAudioFiles(""); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := FindAudioFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestMimetypeFor(t *testing.T) {
	tests := map[string]string{
		"a.mp3":        "audio/mpeg",
		"b.M4A":        "audio/mp4",
		"c.flac":       "audio/flac",
		"d.opus":       "audio/ogg",
		"e.txt":        "",
		"no-extension": "",
	}
	for path, want := range tests {
		if got := MimetypeFor(path); got != want {
			t.Errorf("MimetypeFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestTrackNumber(t *testing.T) {
	tests := map[string]int{"3": 3, "3/12": 3, " 7 ": 7, "": 0, "x": 0, "-1": 0}
	for in, want := range tests {
		if got := trackNumber(in); got != want {
			t.Errorf("trackNumber(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestScanMissingDirs(t *testing.T) {
	ix := NewIndex(source.NewLocal("me"), nil, nil)
	ix.Replace([]Track{{Path: "/keep.mp3"}})

	if _, err := ix.Scan(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("expected error when no dir is readable")
	}
	if ix.Len() != 1 {
		t.Error("failed scan replaced the index")
	}
}

func TestScanEmptyDir(t *testing.T) {
	ix := NewIndex(source.NewLocal("me"), nil, nil)
	ix.Replace([]Track{{Path: "/old.mp3"}})

	stats, err := ix.Scan(context.Background(), []string{t.TempDir()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Files != 0 || ix.Len() != 0 {
		t.Errorf("stats = %+v, Len = %d", stats, ix.Len())
	}
}

func TestScanProgressReportsEveryFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3", "c.flac"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("not audio"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	ix := NewIndex(source.NewLocal("me"), nil, nil)
	var calls [][2]int
	stats, err := ix.ScanProgress(context.Background(), []string{dir}, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("ScanProgress: %v", err)
	}
	if stats.Files != 3 || stats.Indexed+stats.Skipped != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if len(calls) != 3 {
		t.Fatalf("progress called %d times, want 3", len(calls))
	}
	for i, c := range calls {
		if c != [2]int{i + 1, 3} {
			t.Errorf("call %d = %v, want [%d 3]", i, c, i+1)
		}
	}
}

// createTaggedFile generates a short MP3 with ffmpeg and tags it.
// Skips the test if ffmpeg is not available.
func createTaggedFile(t *testing.T, dir string) string {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available, skipping scan test")
	}

	path := filepath.Join(dir, "track.mp3")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "anullsrc=r=44100:cl=mono", "-t", "1", "-q:a", "9", path)
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to create test audio file: %v", err)
	}

	err := taglib.WriteTags(path, map[string][]string{
		taglib.Artist:      {"Daft Punk"},
		taglib.Album:       {"Discovery"},
		taglib.Title:       {"One More Time"},
		taglib.TrackNumber: {"1/14"},
	}, 0)
	if err != nil {
		t.Fatalf("failed to write tags: %v", err)
	}
	return path
}

func TestScanReadsTags(t *testing.T) {
	dir := t.TempDir()
	path := createTaggedFile(t, dir)

	ix := NewIndex(source.NewLocal("me"), nil, nil)
	stats, err := ix.Scan(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Indexed != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	got := ix.Tracks()[0]
	if got.Path != path || got.Artist != "Daft Punk" || got.Title != "One More Time" || got.AlbumPos != 1 {
		t.Errorf("track = %+v", got)
	}
	if got.Mimetype != "audio/mpeg" || got.Size == 0 {
		t.Errorf("mimetype = %q, size = %d", got.Mimetype, got.Size)
	}
}
