// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dunctk/whitepaper-to-socials/internal/container"
	"github.com/dunctk/whitepaper-to-socials/internal/convert"
	"github.com/dunctk/whitepaper-to-socials/internal/images"
	"github.com/dunctk/whitepaper-to-socials/internal/llm"
	"github.com/dunctk/whitepaper-to-socials/internal/nocodb"
	"github.com/dunctk/whitepaper-to-socials/internal/persist"
	"github.com/dunctk/whitepaper-to-socials/internal/pipeline"
	"github.com/dunctk/whitepaper-to-socials/internal/posts"
	"github.com/dunctk/whitepaper-to-socials/internal/state"
	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// recentIntroLimit is how many stored posts are fetched to steer new
// drafts away from recent openings.
const recentIntroLimit = 10

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate LinkedIn post drafts from a whitepaper's charts",
	Long: `Generate converts the PDF to Markdown, extracts chart images, and produces
two post drafts per chart: a vision model describes the chart, then a text
model writes two takes with different openings. Each draft is stored in
NocoDB, or appended to a dated CSV when NocoDB is unreachable.

With --test, exactly one new image is processed (the one after the highest
completed index) and the run stops at the first failure. Without it, every
image that is not yet completed is processed in ascending index order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath, _ := cmd.Flags().GetString("pdf")
		if pdfPath == "" {
			return fmt.Errorf("--pdf is required")
		}
		if _, err := os.Stat(pdfPath); err != nil {
			return fmt.Errorf("cannot read PDF: %w", err)
		}

		cfg := buildConfig(cmd)
		logger := newLogger(cmd)
		ctx := cmd.Context()

		if cfg.AI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is not set (environment, .env, or .secrets/openai-api-key)")
		}
		nc, err := nocodb.NewClient(cfg.NocoDB)
		if err != nil {
			return fmt.Errorf("NocoDB is not configured (NOCODB_BASE_URL, NOCODB_API_KEY, NOCODB_TABLE_ID, NOCODB_BASE_ID): %w", err)
		}

		converter, err := newConverter(cfg.Conversion)
		if err != nil {
			return err
		}
		extractor, err := images.New(cfg.Images)
		if err != nil {
			return err
		}

		store, err := state.NewStore(cfg.StatePath)
		if err != nil {
			return err
		}
		defer store.Close()

		client := llm.NewClient(cfg.AI)

		// Intro steering is best-effort: an unreachable table degrades
		// the prompt, not the run.
		var recentIntros []string
		if intros, introErr := nc.RecentIntros(ctx, recentIntroLimit); introErr == nil {
			recentIntros = intros
		} else {
			logger.Warn("could not fetch recent posts for intro guidance", "error", introErr)
		}

		p := &pipeline.Pipeline{
			Converter: converter,
			Extractor: extractor,
			State:     store,
			Analyzer:  client,
			Generator: &posts.Generator{
				Client:         client,
				WhitepaperName: cfg.WhitepaperName,
				RecentIntros:   recentIntros,
			},
			Saver: &persist.Persister{
				Remote: nc,
				Dir:    cfg.Conversion.WorkDir,
				Logger: logger,
			},
			Cfg:    cfg,
			Logger: logger,
			Status: os.Stdout,
		}
		return p.Run(ctx, pdfPath)
	},
}

// newConverter builds the conversion backend, preferring the markitdown
// container and falling back to a markitdown binary on PATH.
func newConverter(cfg types.ConversionConfig) (convert.Converter, error) {
	switch cfg.Backend {
	case types.BackendContainer, "":
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, fmt.Errorf("no container runtime for markitdown (use --backend exec for a PATH install): %w", err)
		}
		return convert.NewContainerConverter(rt)
	case types.BackendExec:
		return &convert.ExecConverter{}, nil
	default:
		return nil, fmt.Errorf("unknown conversion backend %q", cfg.Backend)
	}
}

func init() {
	generateCmd.Flags().String("pdf", "", "path to the whitepaper PDF (required)")
	generateCmd.Flags().Bool("test", false, "process exactly one new image and exit")
	generateCmd.Flags().String("model", "", "vision/text model identifier (default gpt-4.1)")
	generateCmd.Flags().String("backend", "", "conversion backend: container or exec")
	generateCmd.Flags().String("extractor", "", "image extractor: embedded or render")
	generateCmd.Flags().String("workdir", "", "directory for cached markdown and run artifacts (default work)")
	generateCmd.Flags().String("images-dir", "", "directory for extracted chart images (default <workdir>/images)")
	generateCmd.Flags().String("state", "", "processing-state SQLite database (default state.db)")
	generateCmd.Flags().String("name", "", "whitepaper display name used in post copy")
	generateCmd.Flags().String("nocodb-table", "", "NocoDB table ID override")

	rootCmd.AddCommand(generateCmd)
}
