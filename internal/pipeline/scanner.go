package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const defaultScanBatch = 256

// Scanner lists the granules in a source directory lazily, reading directory
// entries in batches so huge directories are never loaded at once.
type Scanner struct {
	sourceDir string
	outputDir string
	batchSize int
}

// NewScanner creates a Scanner. batchSize <= 0 uses the default.
func NewScanner(sourceDir, outputDir string, batchSize int) *Scanner {
	if batchSize <= 0 {
		batchSize = defaultScanBatch
	}
	return &Scanner{sourceDir: sourceDir, outputDir: outputDir, batchSize: batchSize}
}

// Tasks yields one Task per regular file whose name ends in ".hdf". The
// match is case-sensitive. A read error is yielded once and ends the scan.
func (s *Scanner) Tasks() iter.Seq2[Task, error] {
	return func(yield func(Task, error) bool) {
		dir, err := os.Open(s.sourceDir)
		if err != nil {
			yield(Task{}, fmt.Errorf("open source dir: %w", err))
			return
		}
		defer dir.Close()

		for {
			entries, err := dir.ReadDir(s.batchSize)
			// Sorted within a batch so small directories scan deterministically.
			slices.SortFunc(entries, func(a, b fs.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })
			for _, e := range entries {
				if !strings.HasSuffix(e.Name(), sourceExt) {
					continue
				}
				path := filepath.Join(s.sourceDir, e.Name())
				if !isRegular(e, path) {
					continue
				}
				if !yield(NewTask(path, s.outputDir), nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Task{}, fmt.Errorf("read source dir: %w", err))
				return
			}
		}
	}
}

// isRegular follows symlinks so a linked granule still counts.
func isRegular(e fs.DirEntry, path string) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
