// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Document is one input whitepaper, identified by the SHA-256 of its PDF bytes.
type Document struct {
	// Hash is the hex-encoded SHA-256 of the PDF file contents. All state
	// for a document keys off this value, so renaming the file does not
	// reset progress.
	Hash string `json:"hash" yaml:"hash"`

	// PDFPath is the filesystem path of the source PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// Markdown is the converted Markdown representation.
	Markdown string `json:"-" yaml:"-"`
}

// ChartImage is one extracted chart, with its stable per-document index.
type ChartImage struct {
	// Index is the sequential extraction index. Indices are assigned in
	// page order after width filtering and are stable across runs for the
	// same document hash.
	Index int `json:"index" yaml:"index"`

	// Path is where the extracted image file was written.
	Path string `json:"path" yaml:"path"`

	// Width and Height are the decoded pixel dimensions.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// PageNr is the 1-based PDF page the image came from.
	PageNr int `json:"page" yaml:"page"`
}

// Filename returns the base name of the image file.
func (c ChartImage) Filename() string {
	for i := len(c.Path) - 1; i >= 0; i-- {
		if c.Path[i] == '/' {
			return c.Path[i+1:]
		}
	}
	return c.Path
}

// ChartAnalysis is the structured description the vision model returns for
// one chart.
type ChartAnalysis struct {
	// Title names the chart.
	Title string `json:"title" yaml:"title"`

	// KeyMetric is the single most important number or comparison shown.
	KeyMetric string `json:"key_metric" yaml:"key_metric"`

	// Summary is a one-sentence plain-language summary of the chart.
	Summary string `json:"one_sentence_summary" yaml:"one_sentence_summary"`
}

// ProcessingStatus tracks an image's progress through the pipeline.
type ProcessingStatus string

const (
	// StatusPending means processing has begun but not finished.
	StatusPending ProcessingStatus = "pending"

	// StatusCompleted means both drafts for the image were durably saved.
	StatusCompleted ProcessingStatus = "completed"

	// StatusFailed means the image exhausted its retries and was skipped.
	StatusFailed ProcessingStatus = "failed"
)
