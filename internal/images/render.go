// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package images

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// RenderExtractor rasterizes whole pages to PNG. It exists for PDFs whose
// charts are vector drawings, where EmbeddedExtractor would find nothing.
// Every rendered page becomes one candidate; the width filter still applies.
type RenderExtractor struct {
	// MinWidth drops renders not strictly wider than this many pixels.
	MinWidth int
}

// Extract renders each page in order and writes qualifying renders to outDir.
func (r *RenderExtractor) Extract(ctx context.Context, pdfPath, outDir string) ([]types.ChartImage, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer doc.Close()

	var cands []candidate
	for pageNr := 0; pageNr < doc.NumPage(); pageNr++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.Image(pageNr)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", pageNr+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding page %d: %w", pageNr+1, err)
		}

		cands = append(cands, candidate{
			pageNr:   pageNr + 1,
			data:     buf.Bytes(),
			fileType: "png",
		})
	}

	return writeCharts(cands, outDir, r.MinWidth)
}
