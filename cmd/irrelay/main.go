package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cuemby/irrelay/pkg/classifier"
	"github.com/cuemby/irrelay/pkg/config"
	"github.com/cuemby/irrelay/pkg/daemon"
	"github.com/cuemby/irrelay/pkg/log"
	"github.com/cuemby/irrelay/pkg/metrics"
	"github.com/cuemby/irrelay/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(types.ExitConnect))
	}
}

var rootCmd = &cobra.Command{
	Use:   "irrelay",
	Short: "irrelay - turn lircd repeats into press and hold events",
	Long: `irrelay connects to the lircd socket, collapses each key press and its
repeat reports into a single event and serves the result on a second
socket in the same line format.

A press released within 500ms is relayed as the key name; a press held
longer is relayed once with a _HOLD suffix.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		level, _ := log.ParseLevel(cfg.Log.Level)
		log.Init(log.Config{
			Level:      level,
			JSONOutput: cfg.Log.JSON,
		})
		log.WithRunID(uuid.NewString())
		metrics.SetVersion(Version)

		log.Logger.Info().
			Str("version", Version).
			Str("input", cfg.Input).
			Str("output", cfg.Output).
			Msg("starting irrelay")

		code := daemon.New(daemon.Options{
			Input:       cfg.Input,
			Output:      cfg.Output,
			MetricsAddr: cfg.Metrics.Addr,
			Timing:      classifier.DefaultTiming(),
		}).Run(context.Background())

		log.Logger.Info().Str("exit", code.String()).Int("code", int(code)).Msg("exiting")
		os.Exit(int(code))
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"irrelay version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	addFlags(rootCmd)
}

func addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("config", "c", "", "Path to a YAML config file")
	flags.StringP("input", "i", config.DefaultInput, "lircd socket to read key events from")
	flags.StringP("output", "o", config.DefaultOutput, "Socket to serve classified events on")
	flags.String("log-level", string(log.InfoLevel), "Log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "Log in JSON instead of console format")
	flags.String("metrics-addr", "", "Address for /metrics, /health and /ready (empty disables)")
}

// resolveConfig layers the config file and then any flag the user set over
// the defaults
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.DefaultConfig()

	flags := cmd.Flags()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if flags.Changed("input") {
		cfg.Input, _ = flags.GetString("input")
	}
	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = flags.GetString("metrics-addr")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
