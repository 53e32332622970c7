// Command plotmodel drives the plot data model from the command line on
// synthetic images and on curves read from files or stdin.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"plotmodel/internal/logging"
	"plotmodel/pkg/config"
)

var (
	cfgFile  string
	logLevel string
	jsonLog  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "plotmodel",
	Short: "plotmodel - reductions, profiles and derived curves for plotted data",
	Long: `plotmodel exercises the plot data model: line and box profiles of
images, derivative and smoothing processors for curves, detector geometry
fields and isosurface extraction.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "plotmodel.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides the configuration")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Log as JSON")

	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(geometryCmd)
	rootCmd.AddCommand(isosurfaceCmd)
	rootCmd.AddCommand(configCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.Configure(logging.Options{
		Level:  level,
		JSON:   cfg.Logging.JSON || jsonLog,
		Output: cmd.ErrOrStderr(),
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
