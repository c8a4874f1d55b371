// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates a run: convert the PDF, extract charts,
// pick the images still owed work, and for each one analyze, draft, and
// store before marking it complete.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/dunctk/whitepaper-to-socials/internal/convert"
	"github.com/dunctk/whitepaper-to-socials/internal/images"
	"github.com/dunctk/whitepaper-to-socials/internal/posts"
	"github.com/dunctk/whitepaper-to-socials/internal/state"
	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// Analyzer produces a structured description of one chart image.
// *llm.Client satisfies it.
type Analyzer interface {
	AnalyzeChart(ctx context.Context, imagePath string) (types.ChartAnalysis, error)
}

// Generator produces the post drafts for one chart. *posts.Generator
// satisfies it.
type Generator interface {
	Generate(ctx context.Context, analysis types.ChartAnalysis, excerpt string, img types.ChartImage) ([]types.PostDraft, error)
}

// Saver persists one draft. *persist.Persister satisfies it.
type Saver interface {
	Save(ctx context.Context, draft types.PostDraft) (fellBack bool, err error)
}

// Pipeline wires the stages together for a run over one document.
type Pipeline struct {
	Converter convert.Converter
	Extractor images.Extractor
	State     *state.Store
	Analyzer  Analyzer
	Generator Generator
	Saver     Saver

	Cfg    types.PipelineConfig
	Logger *slog.Logger

	// Status receives human-readable progress lines (defaults to stdout).
	Status io.Writer
}

// Run processes the document at pdfPath. In test mode it handles exactly
// the one image after the highest completed index; otherwise it works
// through every image without a completed record, in ascending index
// order. A run with no outstanding images is a clean no-op.
func (p *Pipeline) Run(ctx context.Context, pdfPath string) error {
	log := p.logger()

	hash, err := HashFile(pdfPath)
	if err != nil {
		return err
	}
	log.Info("processing document", "pdf", pdfPath, "sha256", hash[:12])

	markdown, err := convert.ConvertCached(ctx, p.Converter, pdfPath, p.Cfg.Conversion.WorkDir, p.status())
	if err != nil {
		return fmt.Errorf("converting %s: %w", pdfPath, err)
	}

	imagesDir := p.Cfg.Images.Dir
	if imagesDir == "" {
		imagesDir = filepath.Join(p.Cfg.Conversion.WorkDir, "images")
	}
	charts, err := p.Extractor.Extract(ctx, pdfPath, imagesDir)
	if err != nil {
		return fmt.Errorf("extracting images from %s: %w", pdfPath, err)
	}
	log.Info("extracted chart images", "count", len(charts))

	work, err := p.selectWork(ctx, hash, charts)
	if err != nil {
		return err
	}
	if len(work) == 0 {
		log.Info("no outstanding images, nothing to do")
		return nil
	}

	failed := 0
	for _, chart := range work {
		if err := p.processImage(ctx, hash, markdown, chart); err != nil {
			if markErr := p.State.MarkFailed(ctx, hash, chart.Index); markErr != nil {
				return markErr
			}
			log.Error("image failed, continuing", "image_index", chart.Index, "error", err)
			failed++
		}
	}

	// Skipped images are not fatal: they stay non-completed and the next
	// run picks them up.
	log.Info("run complete", "processed", len(work)-failed, "failed", failed)
	return nil
}

// selectWork picks the images this run owes work on.
func (p *Pipeline) selectWork(ctx context.Context, hash string, charts []types.ChartImage) ([]types.ChartImage, error) {
	if p.Cfg.TestMode {
		next := 0
		if highest, ok, err := p.State.HighestCompleted(ctx, hash); err != nil {
			return nil, err
		} else if ok {
			next = highest + 1
		}
		if next >= len(charts) {
			return nil, nil
		}
		return charts[next : next+1], nil
	}

	completed, err := p.State.CompletedSet(ctx, hash)
	if err != nil {
		return nil, err
	}
	var work []types.ChartImage
	for _, chart := range charts {
		if !completed[chart.Index] {
			work = append(work, chart)
		}
	}
	return work, nil
}

// processImage runs the analyze-draft-store sequence for one chart. The
// image is marked complete only after every draft is stored; any stage
// error leaves it uncompleted for the next run.
func (p *Pipeline) processImage(ctx context.Context, hash, markdown string, chart types.ChartImage) error {
	log := p.logger().With("image_index", chart.Index)
	log.Info("processing image", "file", chart.Filename())

	if err := p.State.Begin(ctx, hash, chart.Index); err != nil {
		return err
	}

	analysis, err := p.Analyzer.AnalyzeChart(ctx, chart.Path)
	if err != nil {
		return err
	}
	if err := p.writeAnalysis(chart, analysis); err != nil {
		log.Warn("could not write analysis sidecar", "error", err)
	}

	excerpt := posts.Excerpt(markdown, chart.Index)
	drafts, err := p.Generator.Generate(ctx, analysis, excerpt, chart)
	if err != nil {
		return err
	}

	fellBack := false
	for _, draft := range drafts {
		fb, err := p.Saver.Save(ctx, draft)
		if err != nil {
			return err
		}
		fellBack = fellBack || fb
	}

	if err := p.State.MarkCompleted(ctx, hash, chart.Index); err != nil {
		return err
	}
	if fellBack {
		log.Warn("image marked complete after CSV fallback; remote table is missing its drafts")
	} else {
		log.Info("image complete", "drafts", len(drafts))
	}
	return nil
}

// writeAnalysis stores the vision output next to the run artifacts so a
// reviewer can check what the model saw without re-running it.
func (p *Pipeline) writeAnalysis(chart types.ChartImage, analysis types.ChartAnalysis) error {
	dir := filepath.Join(p.Cfg.Conversion.WorkDir, "analysis")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	sidecar := struct {
		Image    string              `yaml:"image"`
		Index    int                 `yaml:"index"`
		Analysis types.ChartAnalysis `yaml:"analysis"`
	}{
		Image:    chart.Filename(),
		Index:    chart.Index,
		Analysis: analysis,
	}
	data, err := yaml.Marshal(sidecar)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("images-%d.yaml", chart.Index))
	return os.WriteFile(path, data, 0o644)
}

// HashFile returns the hex SHA-256 of a file's contents, the identity key
// for processing state.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Pipeline) status() io.Writer {
	if p.Status != nil {
		return p.Status
	}
	return os.Stdout
}
