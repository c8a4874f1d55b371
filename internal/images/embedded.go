// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package images

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// EmbeddedExtractor pulls embedded raster image XObjects out of the PDF.
// This is the right backend for whitepapers whose charts are exported as
// bitmaps; for vector-only documents use RenderExtractor.
type EmbeddedExtractor struct {
	// MinWidth drops images not strictly wider than this many pixels.
	MinWidth int
}

// Extract reads the PDF, collects raster images in page/object order,
// filters by MinWidth, and writes survivors to outDir.
func (e *EmbeddedExtractor) Extract(ctx context.Context, pdfPath, outDir string) ([]types.ChartImage, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pageImages, err := api.ExtractImagesRaw(f, nil, conf)
	if err != nil {
		return nil, fmt.Errorf("extracting images from %s: %w", pdfPath, err)
	}

	var cands []candidate
	for _, byObjNr := range pageImages {
		for objNr, img := range byObjNr {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			data, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("reading image object %d: %w", objNr, err)
			}
			cands = append(cands, candidate{
				pageNr:   img.PageNr,
				objNr:    objNr,
				data:     data,
				fileType: img.FileType,
			})
		}
	}
	sortCandidates(cands)

	return writeCharts(cands, outDir, e.MinWidth)
}
