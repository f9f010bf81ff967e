package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-ig-automation/internal/config"
	"github.com/tbourn/go-ig-automation/internal/sysutil"
)

// Version is set at build time via -ldflags "-X main.Version=v1.0.0".
var Version = "dev"

var (
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "igauto",
	Short:         "Instagram comment and DM automation backend",
	Long:          "igauto receives Instagram webhooks, replies to comments and DMs according to per-media and per-account rules, and serves a dashboard API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), "")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment (missing file is ignored)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(cleanupCmd())
	rootCmd.AddCommand(versionCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "igauto %s\n", Version)
		},
	}
}

// loadConfig reads the dotenv file and the environment, then configures the
// global logger from the result.
func loadConfig() (config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return config.Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	level := cfg.LogLevel
	if verbose || sysutil.IsTruthy(os.Getenv("DEBUG")) {
		level = "debug"
	}
	sysutil.SetLogLevel(level)
	log.Logger = sysutil.NewLogger(os.Stderr, cfg.LogPretty, cfg.OTEL.ServiceName)
	zerolog.DefaultContextLogger = &log.Logger
	return cfg, nil
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("igauto failed")
		os.Exit(1)
	}
}
