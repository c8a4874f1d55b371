// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders the stored post drafts as a review PDF, one page
// per draft, so the copy can be approved away from the NocoDB UI.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/dunctk/whitepaper-to-socials/internal/nocodb"
)

// Lister is the record-fetching capability the builder needs.
// *nocodb.Client satisfies it.
type Lister interface {
	// AllRecords returns every stored draft; the report must cover the
	// whole table, not one server page.
	AllRecords(ctx context.Context, sort string) ([]nocodb.Record, error)
}

// Builder fetches drafts and renders the review PDF.
type Builder struct {
	Remote Lister

	// ImagesDir holds the locally extracted chart images. A draft's chart
	// is embedded in its page when the file is still present; otherwise
	// the page carries the text only.
	ImagesDir string

	Logger *slog.Logger
}

// Build writes the review PDF to outPath. Drafts are ordered by image
// index, then variant, so the two takes on each chart sit on adjacent
// pages. No drafts is an error: an empty report helps nobody.
func (b *Builder) Build(ctx context.Context, outPath string) error {
	records, err := b.Remote.AllRecords(ctx, "")
	if err != nil {
		return fmt.Errorf("fetching drafts: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no drafts stored yet, nothing to report on")
	}

	layout := Layout(records, b.ImagesDir)
	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report layout: %w", err)
	}

	jsonPath := outPath + ".layout.json"
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("writing report layout: %w", err)
	}
	defer os.Remove(jsonPath)

	if err := api.CreateFile("", jsonPath, outPath, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("rendering report PDF: %w", err)
	}
	b.logger().Info("report written", "path", outPath, "drafts", len(records))
	return nil
}

// LayoutFile is the pdfcpu create-from-JSON document description.
type LayoutFile struct {
	Paper string                `json:"paper"`
	Pages map[string]LayoutPage `json:"pages"`
}

// LayoutPage is one page of the report.
type LayoutPage struct {
	Content PageContent `json:"content"`
}

// PageContent holds the boxes placed on a page.
type PageContent struct {
	Text  []TextBox  `json:"text,omitempty"`
	Image []ImageBox `json:"image,omitempty"`
}

// TextBox places a block of text relative to a page anchor.
type TextBox struct {
	Value  string   `json:"value"`
	Anchor string   `json:"anchor,omitempty"`
	Dx     float64  `json:"dx,omitempty"`
	Dy     float64  `json:"dy,omitempty"`
	Width  float64  `json:"width,omitempty"`
	Font   FontSpec `json:"font"`
}

// FontSpec selects a core font.
type FontSpec struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// ImageBox places an image file on the page.
type ImageBox struct {
	Src    string  `json:"src"`
	Anchor string  `json:"anchor,omitempty"`
	Dy     float64 `json:"dy,omitempty"`
	Width  float64 `json:"width,omitempty"`
}

// Layout builds the deterministic page layout for the given drafts: one
// page per draft, ordered by image index then variant.
func Layout(records []nocodb.Record, imagesDir string) LayoutFile {
	sorted := make([]nocodb.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ImageIndex != sorted[j].ImageIndex {
			return sorted[i].ImageIndex < sorted[j].ImageIndex
		}
		return sorted[i].Variant < sorted[j].Variant
	})

	pages := make(map[string]LayoutPage, len(sorted))
	for i, rec := range sorted {
		pages[strconv.Itoa(i+1)] = draftPage(rec, imagesDir)
	}
	return LayoutFile{Paper: "A4", Pages: pages}
}

func draftPage(rec nocodb.Record, imagesDir string) LayoutPage {
	content := PageContent{
		Text: []TextBox{
			{
				Value:  rec.Post,
				Anchor: "tl",
				Dx:     40,
				Dy:     -40,
				Width:  515,
				Font:   FontSpec{Name: "Helvetica", Size: 11},
			},
		},
	}

	if rec.ImageDescription != "" {
		content.Text = append(content.Text, TextBox{
			Value:  rec.ImageDescription,
			Anchor: "bl",
			Dx:     40,
			Dy:     60,
			Width:  515,
			Font:   FontSpec{Name: "Helvetica-Oblique", Size: 9},
		})
	}

	// Footer identifies the draft so reviewers can reference it.
	content.Text = append(content.Text, TextBox{
		Value:  fmt.Sprintf("image %d / variant %d / %s", rec.ImageIndex, rec.Variant, rec.ImageFilename),
		Anchor: "bc",
		Dy:     24,
		Font:   FontSpec{Name: "Helvetica", Size: 8},
	})

	if rec.ImageFilename != "" {
		src := filepath.Join(imagesDir, rec.ImageFilename)
		if _, err := os.Stat(src); err == nil {
			content.Image = append(content.Image, ImageBox{
				Src:    src,
				Anchor: "c",
				Dy:     -40,
				Width:  400,
			})
		}
	}

	return LayoutPage{Content: content}
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}
