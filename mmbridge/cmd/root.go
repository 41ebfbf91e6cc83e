// Package cmd provides the command-line interface for mmbridge.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables that provide flag defaults.
const (
	EnvTraceDB     = "MMBRIDGE_TRACE_DB"
	EnvMonitorPort = "MMBRIDGE_MONITOR_PORT"

	EnvClickHouseAddr     = "MMBRIDGE_CLICKHOUSE_ADDR"
	EnvClickHouseUser     = "MMBRIDGE_CLICKHOUSE_USER"
	EnvClickHousePassword = "MMBRIDGE_CLICKHOUSE_PASSWORD"
)

var envFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mmbridge",
	Short: "mmbridge simulates a memory-mapped bus width adapter.",
	Long: `mmbridge simulates a bridge between a slave port and a master ` +
		`port of different data widths, cycle by cycle. Scenarios are JSON ` +
		`files that describe the bridge, the target memory and the ` +
		`transactions to issue.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadEnv(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"File to load environment defaults from")
}

// loadEnv loads the environment file if it exists. Variables already set in
// the environment win.
func loadEnv(filename string) error {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil
	}

	return errors.Wrapf(godotenv.Load(filename), "loading %s", filename)
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}
