package collection

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"
)

// Supported audio file extensions and the mimetype each is served as.
var audioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".opus": "audio/ogg",
	".ogg":  "audio/ogg",
	".wav":  "audio/x-wav",
	".aac":  "audio/aac",
}

// MimetypeFor returns the mimetype of an audio file, or "" if the extension
// is not a supported audio format.
func MimetypeFor(path string) string {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// FindAudioFiles recursively finds all audio files in a directory.
func FindAudioFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory path cannot be empty")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", dir)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && MimetypeFor(path) != "" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", dir, err)
	}
	return files, nil
}

// ReadTrack reads the tags and audio properties of one file. Files without
// a title tag are indexed under their file name.
func ReadTrack(path string) (Track, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return Track{}, fmt.Errorf("failed to read tags: %w", err)
	}
	props, err := taglib.ReadProperties(path)
	if err != nil {
		return Track{}, fmt.Errorf("failed to read properties: %w", err)
	}

	t := Track{
		Path:     path,
		Artist:   firstTag(tags, taglib.Artist),
		Album:    firstTag(tags, taglib.Album),
		Title:    firstTag(tags, taglib.Title),
		AlbumPos: trackNumber(firstTag(tags, taglib.TrackNumber)),
		Duration: props.Length,
		Bitrate:  int(props.Bitrate),
		Mimetype: MimetypeFor(path),
	}
	if t.Artist == "" {
		t.Artist = firstTag(tags, taglib.AlbumArtist)
	}
	if t.Title == "" {
		t.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if info, err := os.Stat(path); err == nil {
		t.Size = info.Size()
	}
	return t, nil
}

// ScanStats summarizes one scan.
type ScanStats struct {
	Files   int
	Indexed int
	Skipped int
}

// ProgressFunc is told how many files have been read out of total.
type ProgressFunc func(done, total int)

// Scan walks dirs, reads every audio file and replaces the index contents.
// Unreadable files are skipped. A cancelled scan leaves the index untouched.
func (ix *Index) Scan(ctx context.Context, dirs []string) (ScanStats, error) {
	return ix.ScanProgress(ctx, dirs, nil)
}

// ScanProgress is Scan reporting to progress after each file. progress may
// be nil.
func (ix *Index) ScanProgress(ctx context.Context, dirs []string, progress ProgressFunc) (ScanStats, error) {
	var stats ScanStats
	var files []string
	readable := 0

	for _, dir := range dirs {
		found, err := FindAudioFiles(dir)
		if err != nil {
			ix.log.Warn("Skipping collection dir: %v", err)
			continue
		}
		readable++
		files = append(files, found...)
	}
	if len(dirs) > 0 && readable == 0 {
		return stats, errors.New("no collection directory could be read")
	}
	stats.Files = len(files)

	tracks := make([]Track, 0, len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		t, err := ReadTrack(path)
		if err != nil {
			ix.log.Debug("Skipping %s: %v", path, err)
			stats.Skipped++
		} else {
			tracks = append(tracks, t)
		}
		if progress != nil {
			progress(i+1, len(files))
		}
	}

	stats.Indexed = len(tracks)
	ix.Replace(tracks)
	ix.log.Info("Indexed %d tracks (%d skipped)", stats.Indexed, stats.Skipped)
	return stats, nil
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

// trackNumber parses "3" and "3/12".
func trackNumber(s string) int {
	s, _, _ = strings.Cut(s, "/")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
