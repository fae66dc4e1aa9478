package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

const (
	// DefaultTool is the GDAL raster translator.
	DefaultTool = "gdal_translate"

	// DefaultSubdataset selects the 250 m 16-day NDVI layer of a MODIS
	// MOD13Q1 granule. {path} is replaced with the source path.
	DefaultSubdataset = `HDF4_EOS:EOS_GRID:"{path}":MODIS_Grid_16DAY_250m_500m_VI:"250m 16 days NDVI"`

	pathPlaceholder = "{path}"
)

// Converter turns one task into an outcome. Implementations never return an
// error; failures are reported through Outcome.Status.
type Converter interface {
	Convert(ctx context.Context, task Task) Outcome
}

// GDALConverter runs an external translator once per granule.
type GDALConverter struct {
	tool       string
	subdataset string
	logger     *slog.Logger
}

// NewGDALConverter creates a converter. Empty tool or subdataset values fall
// back to DefaultTool and DefaultSubdataset.
func NewGDALConverter(tool, subdataset string, logger *slog.Logger) *GDALConverter {
	if tool == "" {
		tool = DefaultTool
	}
	if subdataset == "" {
		subdataset = DefaultSubdataset
	}
	return &GDALConverter{tool: tool, subdataset: subdataset, logger: logger}
}

// Args builds the translator arguments for task.
func (c *GDALConverter) Args(task Task) []string {
	return []string{strings.ReplaceAll(c.subdataset, pathPlaceholder, task.Source), task.Output}
}

// Convert skips tasks whose output already exists, otherwise runs the tool
// and waits for it. The process is not tied to ctx: a conversion in flight
// always runs to completion.
func (c *GDALConverter) Convert(ctx context.Context, task Task) Outcome {
	_, err := os.Stat(task.Output)
	switch {
	case err == nil:
		return Outcome{Task: task, Status: StatusSkipped}
	case !errors.Is(err, fs.ErrNotExist):
		return Outcome{Task: task, Status: StatusFailed, Diagnostic: fmt.Sprintf("stat output: %v", err)}
	}

	args := c.Args(task)
	c.logger.DebugContext(ctx, "running", "cmd", c.tool+" "+strings.Join(args, " "))

	out, err := exec.Command(c.tool, args...).CombinedOutput() //nolint:gosec,noctx // tool path is operator config; never cancelled mid-file
	if err == nil {
		return Outcome{Task: task, Status: StatusSucceeded}
	}

	if rmErr := os.Remove(task.Output); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		c.logger.WarnContext(ctx, "remove partial output failed", "output", task.Output, "error", rmErr)
	}
	return Outcome{Task: task, Status: StatusFailed, Diagnostic: diagnostic(out, err)}
}

func diagnostic(out []byte, err error) string {
	text := strings.TrimSpace(string(out))
	if text == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s (%v)", text, err)
}
