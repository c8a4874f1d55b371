// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the whitepaper-to-socials CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dunctk/whitepaper-to-socials/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the whitepaper-to-socials CLI.
var rootCmd = &cobra.Command{
	Use:   "whitepaper-to-socials",
	Short: "Turn whitepaper charts into LinkedIn post drafts",
	Long: `whitepaper-to-socials converts a PDF whitepaper to Markdown, extracts its
chart images, and drafts two LinkedIn posts per chart with a vision model.
Drafts land in a NocoDB table (or a local CSV when the table is unreachable),
and a review PDF can be rendered from the stored drafts.

Progress is tracked per image in a local SQLite database keyed by the PDF's
SHA-256, so interrupted runs resume where they left off.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; missing file is the common case.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./whitepaper-to-socials.yaml or ~/.config/whitepaper-to-socials/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("whitepaper-to-socials")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "whitepaper-to-socials"))
		}
	}

	viper.SetEnvPrefix("WP2LI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the structured logger all stages share. Logs go to
// stderr so stdout stays clean for status lines and report paths.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
