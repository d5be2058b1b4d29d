package main

import (
	"fmt"
	"os"

	"github.com/koscakluka/ema-interview/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "ema-interview",
	Short: "Spoken mock interviews against the EMA interview service",
	Long: `ema-interview asks AI generated interview questions out loud, listens to
your spoken answers and submits them to the interview service. Answers can
always be typed instead when no microphone is available.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default "+config.DefaultPath+" when present)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumesCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(initCmd)
}
