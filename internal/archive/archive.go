// Package archive manages the directories holding copies of ingested audio
// files, named after their content identity.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/llehouerou/liveset/internal/tags"
	"github.com/llehouerou/liveset/internal/track"
)

// ErrNotFound is returned when a source file is missing or its extension is not accepted.
var ErrNotFound = errors.New("file not found or unsupported")

// EnsureDir creates dir and its parents if absent.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// ListMediaFiles returns the accepted audio files directly inside dir, sorted by name.
// The directory is read on every call.
func ListMediaFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !tags.IsMusicFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Ingest copies src into dir under a name derived from id and returns the target path.
func Ingest(src, dir string, id uuid.UUID) (string, error) {
	info, err := os.Stat(src)
	if err != nil || !info.Mode().IsRegular() || !tags.IsMusicFile(src) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, src)
	}

	target := filepath.Join(dir, track.ArchiveName(id, filepath.Ext(src)))
	if err := copyFile(src, target); err != nil {
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	return target, nil
}

// ReconcileResult summarizes an archive clean-up.
type ReconcileResult struct {
	Deleted    int
	FreedBytes int64
	Failed     int
}

// Reconcile deletes every media file in dir whose path is not in keep.
// Failures are logged and counted; they never abort the pass.
func Reconcile(dir string, keep []string, log zerolog.Logger) ReconcileResult {
	var res ReconcileResult

	files, err := ListMediaFiles(dir)
	if err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("archive: list for reconcile")
		return res
	}

	kept := make(map[string]struct{}, len(keep))
	for _, p := range keep {
		kept[filepath.Clean(p)] = struct{}{}
	}

	for _, f := range files {
		if _, ok := kept[f]; ok {
			continue
		}
		var size int64
		if info, err := os.Stat(f); err == nil {
			size = info.Size()
		}
		if err := os.Remove(f); err != nil {
			res.Failed++
			log.Error().Err(err).Str("file", f).Msg("archive: delete orphan")
			continue
		}
		res.Deleted++
		res.FreedBytes += size
		log.Debug().Str("file", f).Msg("archive: deleted orphan")
	}

	if res.Deleted > 0 || res.Failed > 0 {
		log.Info().
			Int("deleted", res.Deleted).
			Int("failed", res.Failed).
			Str("freed", humanize.Bytes(uint64(res.FreedBytes))).
			Str("dir", dir).
			Msg("archive reconciled")
	}
	return res
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	return dstFile.Close()
}
