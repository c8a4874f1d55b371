// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package images extracts chart images from a PDF and assigns each a stable
// sequential index. Extraction order is page number, then object number
// within the page, so the same document bytes always yield the same indices.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	// Decoders for the raster formats PDFs commonly embed.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// DefaultMinWidth filters decorative images: only charts strictly wider
// than this many pixels are kept.
const DefaultMinWidth = 300

// Extractor pulls chart images out of a PDF, writing them to outDir as
// images-<index>.<ext> and returning them in index order.
type Extractor interface {
	Extract(ctx context.Context, pdfPath, outDir string) ([]types.ChartImage, error)
}

// New returns the extractor for the configured backend.
func New(cfg types.ImagesConfig) (Extractor, error) {
	minWidth := cfg.MinWidth
	if minWidth <= 0 {
		minWidth = DefaultMinWidth
	}
	switch cfg.Backend {
	case types.ExtractorEmbedded, "":
		return &EmbeddedExtractor{MinWidth: minWidth}, nil
	case types.ExtractorRender:
		return &RenderExtractor{MinWidth: minWidth}, nil
	default:
		return nil, fmt.Errorf("unknown image extractor backend %q", cfg.Backend)
	}
}

// candidate is one raw image pulled from the PDF before filtering.
type candidate struct {
	pageNr   int
	objNr    int
	data     []byte
	fileType string
}

// writeCharts decodes candidates in order, drops anything not strictly
// wider than minWidth, assigns sequential indices to the survivors, and
// writes each to outDir. Candidates that fail to decode are skipped, same
// as the original tool skips unreadable files.
func writeCharts(cands []candidate, outDir string, minWidth int) ([]types.ChartImage, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating images directory: %w", err)
	}

	var charts []types.ChartImage
	for _, c := range cands {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(c.data))
		if err != nil {
			continue
		}
		if cfg.Width <= minWidth {
			continue
		}

		idx := len(charts)
		path := filepath.Join(outDir, chartFileName(idx, c.fileType))
		if err := os.WriteFile(path, c.data, 0o644); err != nil {
			return nil, fmt.Errorf("writing image %d: %w", idx, err)
		}

		charts = append(charts, types.ChartImage{
			Index:  idx,
			Path:   path,
			Width:  cfg.Width,
			Height: cfg.Height,
			PageNr: c.pageNr,
		})
	}

	return charts, nil
}

// chartFileName builds the images-<index>.<ext> name for an extracted chart.
func chartFileName(index int, fileType string) string {
	ext := fileType
	if ext == "" || ext == "jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("images-%d.%s", index, ext)
}

// sortCandidates orders candidates by page, then object number.
func sortCandidates(cands []candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].pageNr != cands[j].pageNr {
			return cands[i].pageNr < cands[j].pageNr
		}
		return cands[i].objNr < cands[j].objNr
	})
}
