// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package images

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// pngBytes encodes a blank image of the given size.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

func TestWriteCharts_FiltersAndIndexes(t *testing.T) {
	dir := t.TempDir()
	cands := []candidate{
		{pageNr: 1, objNr: 4, data: pngBytes(t, 800, 400), fileType: "png"},
		{pageNr: 1, objNr: 7, data: pngBytes(t, 64, 64), fileType: "png"},   // logo, too narrow
		{pageNr: 3, objNr: 2, data: pngBytes(t, 301, 200), fileType: "png"}, // just over the bar
		{pageNr: 4, objNr: 1, data: pngBytes(t, 300, 900), fileType: "png"}, // exactly MinWidth: dropped
		{pageNr: 5, objNr: 9, data: []byte("not an image"), fileType: "png"},
	}

	charts, err := writeCharts(cands, dir, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(charts) != 2 {
		t.Fatalf("kept %d charts, want 2", len(charts))
	}
	for i, c := range charts {
		if c.Index != i {
			t.Errorf("chart %d has index %d", i, c.Index)
		}
		if _, err := os.Stat(c.Path); err != nil {
			t.Errorf("chart %d file missing: %v", i, err)
		}
	}
	if charts[0].Width != 800 || charts[0].PageNr != 1 {
		t.Errorf("chart 0 = %+v, want width 800 page 1", charts[0])
	}
	if charts[1].Width != 301 || charts[1].PageNr != 3 {
		t.Errorf("chart 1 = %+v, want width 301 page 3", charts[1])
	}
	if got := filepath.Base(charts[0].Path); got != "images-0.png" {
		t.Errorf("chart 0 filename = %q, want images-0.png", got)
	}
}

func TestWriteCharts_StableIndicesAcrossRuns(t *testing.T) {
	cands := []candidate{
		{pageNr: 2, objNr: 1, data: pngBytes(t, 500, 300), fileType: "png"},
		{pageNr: 1, objNr: 3, data: pngBytes(t, 600, 300), fileType: "png"},
		{pageNr: 1, objNr: 2, data: pngBytes(t, 700, 300), fileType: "png"},
	}
	sortCandidates(cands)

	first, err := writeCharts(cands, t.TempDir(), 300)
	if err != nil {
		t.Fatal(err)
	}
	second, err := writeCharts(cands, t.TempDir(), 300)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Index != second[i].Index || first[i].Width != second[i].Width {
			t.Errorf("index %d differs across runs: %+v vs %+v", i, first[i], second[i])
		}
	}
	// page 1 obj 2 (700 wide) must come first after sorting.
	if first[0].Width != 700 {
		t.Errorf("expected page 1 obj 2 first, got width %d", first[0].Width)
	}
}

func TestChartFileName(t *testing.T) {
	tests := []struct {
		index    int
		fileType string
		want     string
	}{
		{0, "png", "images-0.png"},
		{3, "jpeg", "images-3.jpg"},
		{12, "", "images-12.jpg"},
		{1, "tiff", "images-1.tiff"},
	}
	for _, tt := range tests {
		if got := chartFileName(tt.index, tt.fileType); got != tt.want {
			t.Errorf("chartFileName(%d, %q) = %q, want %q", tt.index, tt.fileType, got, tt.want)
		}
	}
}

func TestNew_BackendSelection(t *testing.T) {
	e, err := New(types.ImagesConfig{Backend: types.ExtractorEmbedded})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*EmbeddedExtractor); !ok {
		t.Errorf("got %T, want *EmbeddedExtractor", e)
	}

	e, err = New(types.ImagesConfig{Backend: types.ExtractorRender, MinWidth: 100})
	if err != nil {
		t.Fatal(err)
	}
	re, ok := e.(*RenderExtractor)
	if !ok {
		t.Fatalf("got %T, want *RenderExtractor", e)
	}
	if re.MinWidth != 100 {
		t.Errorf("MinWidth = %d, want 100", re.MinWidth)
	}

	if _, err := New(types.ImagesConfig{Backend: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
