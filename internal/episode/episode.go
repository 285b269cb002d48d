package episode

import (
	"fmt"
	"path/filepath"
	"time"

	"shellac/internal/textutil"
)

// Part is one downloadable constituent of an episode, in source order.
// Reordering parts is never valid.
type Part struct {
	SourceRef string
	Position  int
}

// Episode is one logical show installment, possibly assembled from multiple
// source parts. The title is the canonical title derived at grouping time.
type Episode struct {
	Title    string
	Parts    []Part
	Duration time.Duration // zero when no source reported one
	Source   string        // enumerator name this episode came from
}

// FileName returns the archive file name for the episode.
func (e Episode) FileName() string {
	return textutil.SanitizeFileName(e.Title) + ".mp3"
}

// FinalPath returns the permanent artifact location under the archive dir.
func (e Episode) FinalPath(archiveDir string) string {
	return filepath.Join(archiveDir, e.FileName())
}

// TempPath returns the in-flight artifact location under the temp dir. The
// temp artifact exists only between assembly and the fingerprint verdict.
func (e Episode) TempPath(tempDir string) string {
	return filepath.Join(tempDir, e.FileName())
}

// PartTempPath returns the download destination for one part. A single-part
// episode downloads straight to its temp artifact path; multi-part episodes
// get indexed per-part files that are merged and discarded afterwards.
func (e Episode) PartTempPath(tempDir string, index int) string {
	if len(e.Parts) == 1 {
		return e.TempPath(tempDir)
	}
	name := fmt.Sprintf("%s_%d.mp3", textutil.SanitizeFileName(e.Title), index)
	return filepath.Join(tempDir, name)
}
