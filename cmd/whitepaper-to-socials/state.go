// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dunctk/whitepaper-to-socials/internal/pipeline"
	"github.com/dunctk/whitepaper-to-socials/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show per-image processing state for a whitepaper",
	Long: `State prints the processing record for every image of the given PDF:
its index, status (pending, completed, or failed), and when it last changed.
Useful for checking what a resumed run will pick up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath, _ := cmd.Flags().GetString("pdf")
		if pdfPath == "" {
			return fmt.Errorf("--pdf is required")
		}

		hash, err := pipeline.HashFile(pdfPath)
		if err != nil {
			return err
		}

		cfg := buildConfig(cmd)
		store, err := state.NewStore(cfg.StatePath)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.Records(cmd.Context(), hash)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Printf("no processing state for %s (sha256 %s)\n", pdfPath, hash[:12])
			return nil
		}

		fmt.Printf("document %s (sha256 %s)\n", pdfPath, hash[:12])
		for _, r := range records {
			fmt.Printf("  image %-3d %-10s %s\n", r.ImageIndex, r.Status, r.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	stateCmd.Flags().String("pdf", "", "path to the whitepaper PDF (required)")
	stateCmd.Flags().String("state", "", "processing-state SQLite database (default state.db)")

	rootCmd.AddCommand(stateCmd)
}
