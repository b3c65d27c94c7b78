package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Err(err).Msg("command failed")
		os.Exit(1)
	}
}
