package main

import (
	"os"
	"time"

	"github.com/jrsteele09/consulta-dashboard/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Session gateway for the consultation panel",
	Long: `Serves the consultation panel and keeps each browser session's auth,
idle timeout and payment state on the server. Usage:

	dashboard serve
	dashboard check-payments --token <token>
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(config.New())
	},
}

// setupLogging configures the global zerolog logger
func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		if level > zerolog.DebugLevel {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	}
}
