package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/entigo"
)

// ErrRunnerUnsupported is returned for any --runner value other than
// "local". Distributed execution is not implemented.
var ErrRunnerUnsupported = errors.New("only the local runner is supported")

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "entigo",
	Short: "Match and cluster duplicate records",
	Long: `Entigo resolves duplicate entities in tabular data: deterministic
rules and embedding similarity propose candidate pairs, and transitive
merging turns the pairs into clusters.

Settings resolve in order: flags, then ENTIGO_* environment variables
(a .env file is picked up if present), then the config file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: entigo.yaml in the working directory)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("runner", "local", "execution runner; only \"local\" is supported")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
}

// initConfig wires viper to the environment and the optional config file
// and validates the shared flags. Flags win over environment variables,
// which win over the config file.
func initConfig(cmd *cobra.Command) error {
	// .env first, so AutomaticEnv sees its values.
	_ = godotenv.Load()

	v.SetEnvPrefix("ENTIGO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("entigo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if v.GetBool("no-color") {
		color.NoColor = true
	}

	return validateRunner(v.GetString("runner"))
}

func validateRunner(runner string) error {
	if runner != "local" {
		return fmt.Errorf("%w: %q", ErrRunnerUnsupported, runner)
	}

	return nil
}

// newLogger builds the pipeline logger from the resolved log level,
// writing to stderr so report output stays clean on stdout.
func newLogger() *entigo.Logger {
	var level slog.Level

	switch v.GetString("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	return entigo.NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
