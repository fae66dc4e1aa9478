// Command ndvi converts MODIS granules to NDVI rasters and runs one-off
// predictions from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/ndvi-forecast/internal/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ndvi",
		Short: "NDVI forecasting and MODIS conversion tools",
		Long: `ndvi converts MODIS HDF4-EOS granules into NDVI GeoTIFF rasters and
queries the NDVI regression model for a named location and date.

Every flag can also be set through an NDVI_ environment variable,
e.g. NDVI_SOURCE_DIR or NDVI_LOG_LEVEL.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (yaml, json, or toml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(newConvertCmd())
	root.AddCommand(newPredictCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	viper.SetEnvPrefix("NDVI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	slog.SetDefault(observability.NewLogger(viper.GetString("log-level"), viper.GetString("log-format")))
	return nil
}
