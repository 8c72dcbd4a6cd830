package main

import (
	"github.com/spf13/cobra"

	"learnpath/internal/config"
	"learnpath/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "learnpath",
	Short:         "Learning path progression and quiz session server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-mode", "", "Log mode: dev, prod or test (overrides LOG_MODE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bootstrap loads configuration and builds the logger shared by every
// command.
func bootstrap(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, envLoaded := config.Load()
	if mode, _ := cmd.Flags().GetString("log-mode"); mode != "" {
		cfg.LogMode = mode
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	if !envLoaded {
		log.Warn(".env file not found, using process environment")
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		log.Sync()
		return nil, nil, err
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Warn("JWT_SECRET not set, using the development fallback")
	}
	return cfg, log, nil
}
