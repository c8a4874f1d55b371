// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dunctk/whitepaper-to-socials/internal/nocodb"
	"github.com/dunctk/whitepaper-to-socials/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render stored drafts as a review PDF",
	Long: `Report fetches every stored draft from NocoDB and renders a review PDF
with one page per draft: the post text, the chart image when it is still
present locally, and the chart description. Pages are ordered by image
index, then variant.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig(cmd)
		logger := newLogger(cmd)

		nc, err := nocodb.NewClient(cfg.NocoDB)
		if err != nil {
			return fmt.Errorf("report needs a reachable NocoDB table: %w", err)
		}

		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			name := fmt.Sprintf("linkedin_posts_%s.pdf", time.Now().Format("20060102"))
			outPath = filepath.Join(cfg.Conversion.WorkDir, name)
		}
		b := &report.Builder{
			Remote:    nc,
			ImagesDir: cfg.Images.Dir,
			Logger:    logger,
		}
		if err := b.Build(cmd.Context(), outPath); err != nil {
			return err
		}
		fmt.Println(outPath)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("output", "", "path for the review PDF (default <workdir>/linkedin_posts_<YYYYMMDD>.pdf)")
	reportCmd.Flags().String("images-dir", "", "directory holding the extracted chart images (default <workdir>/images)")
	reportCmd.Flags().String("workdir", "", "directory for cached markdown and run artifacts (default work)")

	rootCmd.AddCommand(reportCmd)
}
