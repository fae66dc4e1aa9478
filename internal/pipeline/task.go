package pipeline

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	sourceExt    = ".hdf"
	outputSuffix = "_ndvi.tif"
)

// Task is one source granule and the raster it converts to.
type Task struct {
	Source string
	Output string
}

// NewTask derives the output path for source inside outputDir.
func NewTask(source, outputDir string) Task {
	base := strings.TrimSuffix(filepath.Base(source), sourceExt)
	return Task{Source: source, Output: filepath.Join(outputDir, base+outputSuffix)}
}

// Name is the source file name as recorded in the failure log.
func (t Task) Name() string {
	return filepath.Base(t.Source)
}

// Status is the result of attempting one task.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome records what happened to a task. Diagnostic holds the tool's
// captured output or the exec error on failure.
type Outcome struct {
	Task       Task
	Status     Status
	Diagnostic string
	Duration   time.Duration
}

// Summary aggregates the outcomes of one run.
type Summary struct {
	Succeeded int
	Skipped   int
	Failed    int
	Failures  []Outcome
}

// Total is the number of tasks attempted.
func (s Summary) Total() int {
	return s.Succeeded + s.Skipped + s.Failed
}

func (s *Summary) add(o Outcome) {
	switch o.Status {
	case StatusSucceeded:
		s.Succeeded++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
		s.Failures = append(s.Failures, o)
	}
}
