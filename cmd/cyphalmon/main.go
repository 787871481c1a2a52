// cyphalmon attaches to a CAN bus and logs the Cyphal transfers it sees.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "cyphalmon",
	Short: "Observe Cyphal/CAN traffic and print decoded transfers",
	Long: `cyphalmon subscribes to a set of Cyphal subjects on a CAN bus and logs ` +
		`every transfer it receives. Heartbeats are decoded into their fields; ` +
		`other subjects are shown as raw payload bytes.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.AddCommand(monitorCmd, demoCmd)
}

// resolveConfig loads the file config and applies flag overrides.
func resolveConfig() (Config, error) {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return Config{}, err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger().Level(lvl), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cyphalmon: %v\n", err)
		os.Exit(1)
	}
}
