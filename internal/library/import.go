package library

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/llehouerou/liveset/internal/tags"
	"github.com/llehouerou/liveset/internal/track"
)

const numWorkers = 8

// ImportProgress reports the progress of a directory import.
type ImportProgress struct {
	Phase       string // "scanning", "processing", "done"
	Current     int
	Total       int
	CurrentFile string
}

// ImportStats summarizes a completed import.
type ImportStats struct {
	Added      []*track.Track // in discovery order, resident tracks included once
	Duplicates int            // files whose identity was already resident
	Failed     map[string]error
}

type extractResult struct {
	path  string
	track *track.Track
	err   error
}

// ImportDir walks dir recursively and adds every accepted audio file to the
// library. Metadata is extracted in parallel; archive copies and map updates
// happen on the calling goroutine. progress may be nil; it is closed on return.
func (e *Engine) ImportDir(dir string, progress chan<- ImportProgress) (*ImportStats, error) {
	if progress != nil {
		defer close(progress)
	}
	report := func(p ImportProgress) {
		if progress != nil {
			progress <- p
		}
	}

	if !e.started {
		return nil, ErrNotStarted
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	report(ImportProgress{Phase: "scanning"})
	files := discoverFiles(dir)

	stats := &ImportStats{Failed: make(map[string]error)}
	results := e.extractAll(files)

	seen := make(map[*track.Track]bool)
	for i, r := range results {
		report(ImportProgress{Phase: "processing", Current: i + 1, Total: len(files), CurrentFile: r.path})
		if r.err != nil {
			stats.Failed[r.path] = r.err
			continue
		}
		if _, ok := e.tracks[r.track.ID]; ok {
			stats.Duplicates++
		}
		t, err := e.addCandidate(r.track)
		if err != nil {
			stats.Failed[r.path] = err
			continue
		}
		if !seen[t] {
			seen[t] = true
			stats.Added = append(stats.Added, t)
		}
	}

	report(ImportProgress{Phase: "done", Current: len(files), Total: len(files)})
	e.log.Info().
		Str("dir", dir).
		Int("files", len(files)).
		Int("added", len(stats.Added)).
		Int("duplicates", stats.Duplicates).
		Int("failed", len(stats.Failed)).
		Msg("import finished")
	return stats, nil
}

// addCandidate registers an extracted track, copying it unless resident.
func (e *Engine) addCandidate(c *track.Track) (*track.Track, error) {
	if existing, ok := e.tracks[c.ID]; ok {
		return existing, nil
	}
	t, err := e.copyInto(c, e.paths.Archive)
	if err != nil {
		return nil, err
	}
	e.tracks[t.ID] = t
	return t, nil
}

// extractAll builds candidates for files in parallel. Results keep the input order.
func (e *Engine) extractAll(files []string) []extractResult {
	results := make([]extractResult, len(files))
	work := make(chan int)

	var wg sync.WaitGroup
	for range min(numWorkers, len(files)) {
		wg.Go(func() {
			for i := range work {
				t, err := e.candidate(files[i])
				results[i] = extractResult{path: files[i], track: t, err: err}
			}
		})
	}
	for i := range files {
		work <- i
	}
	close(work)
	wg.Wait()

	return results
}

// discoverFiles walks dir and returns the accepted audio files, sorted.
func discoverFiles(dir string) []string {
	var files []string
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		// Skip unreadable entries and keep walking.
		if walkErr != nil {
			return nil //nolint:nilerr // intentionally skipping errors
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if tags.IsMusicFile(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}
