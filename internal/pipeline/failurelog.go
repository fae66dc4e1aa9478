package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// FailureLog is an append-only, newline-delimited list of source file names
// whose conversion failed. Entries accumulate across runs and are never
// pruned or deduplicated.
type FailureLog struct {
	path string
}

// NewFailureLog returns a log backed by path.
func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path}
}

// Path returns the backing file path.
func (l *FailureLog) Path() string { return l.path }

// Append opens the log (creating it if needed), writes one line per name,
// and closes it. It is called once per run, even with no names.
func (l *FailureLog) Append(names []string) (err error) {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open failure log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close failure log: %w", cerr))
		}
	}()

	w := bufio.NewWriter(f)
	for _, name := range names {
		if _, err := w.WriteString(name + "\n"); err != nil {
			return fmt.Errorf("append failure log: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("append failure log: %w", err)
	}
	return nil
}
