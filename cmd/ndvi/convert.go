package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/ndvi-forecast/internal/observability"
	"github.com/couchcryptid/ndvi-forecast/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert pending MODIS granules to NDVI GeoTIFFs",
		Long: `Scans the source directory for .hdf granules and runs gdal_translate on each
one whose NDVI raster does not exist yet. Failed files are appended to the
failure log; rerunning retries them.`,
		Args: cobra.NoArgs,
		RunE: runConvert,
	}

	f := cmd.Flags()
	f.String("source-dir", "data", "directory holding .hdf granules")
	f.String("output-dir", "converted", "directory for _ndvi.tif rasters (created if missing)")
	f.String("failure-log", "failed_files.txt", "append-only list of failed granules")
	f.String("tool", pipeline.DefaultTool, "translator executable")
	f.String("subdataset", pipeline.DefaultSubdataset, "subdataset template; {path} is the granule path")
	f.Int("scan-batch", 0, "directory entries read per batch (0 = default)")
	f.String("metrics-file", "", "write Prometheus text metrics here when done")
	f.Bool("no-progress", false, "disable the progress bar")
	for _, name := range []string{"source-dir", "output-dir", "failure-log", "tool", "subdataset", "scan-batch", "metrics-file", "no-progress"} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}
	return cmd
}

func runConvert(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetricsWithRegistry(reg)

	sourceDir := viper.GetString("source-dir")
	outputDir := viper.GetString("output-dir")
	failureLog := pipeline.NewFailureLog(viper.GetString("failure-log"))

	var opts []pipeline.Option
	var bar *progress
	if !viper.GetBool("no-progress") {
		bar = newProgress(cmd.ErrOrStderr())
		opts = append(opts, pipeline.WithReporter(bar))
	}

	p := pipeline.New(
		pipeline.NewScanner(sourceDir, outputDir, viper.GetInt("scan-batch")),
		pipeline.NewGDALConverter(viper.GetString("tool"), viper.GetString("subdataset"), logger),
		failureLog,
		outputDir,
		logger,
		metrics,
		opts...,
	)

	summary, runErr := p.Run(cmd.Context())
	if bar != nil {
		bar.finish()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "converted %d, skipped %d, failed %d\n", summary.Succeeded, summary.Skipped, summary.Failed)
	for _, o := range summary.Failures {
		fmt.Fprintf(cmd.OutOrStdout(), "  FAILED %s: %s\n", o.Task.Name(), o.Diagnostic)
	}
	if summary.Failed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "failures appended to %s\n", failureLog.Path())
	}

	if path := viper.GetString("metrics-file"); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			logger.Error("write metrics file failed", "path", path, "error", err)
		}
	}
	return runErr
}

// progress drives a spinner-style bar; the scan is lazy so the total is unknown.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer) *progress {
	return &progress{bar: progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)}
}

func (p *progress) Report(o pipeline.Outcome) {
	p.bar.Describe(fmt.Sprintf("%s %s", o.Status, o.Task.Name()))
	_ = p.bar.Add(1)
}

func (p *progress) finish() {
	_ = p.bar.Finish()
}
