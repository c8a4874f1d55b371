// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PostDraft is one generated LinkedIn post for one chart image. Two drafts
// are produced per image and persisted independently.
type PostDraft struct {
	// Post is the generated post text.
	Post string `json:"post" yaml:"post"`

	// Variant is 1 or 2; the two variants use different rhetorical hooks.
	Variant int `json:"variant" yaml:"variant"`

	// ImagePath is the local path of the chart image.
	ImagePath string `json:"image_path" yaml:"image_path"`

	// ImageFilename is the base name of the chart image file, persisted so
	// the report builder can find the local file again.
	ImageFilename string `json:"image_filename" yaml:"image_filename"`

	// Description is the plain-text chart description derived from the
	// vision analysis.
	Description string `json:"image_description" yaml:"image_description"`

	// ImageIndex is the chart's sequential extraction index.
	ImageIndex int `json:"image_index" yaml:"image_index"`

	// PublishedAt is nil until the draft is published (publishing itself is
	// outside this tool).
	PublishedAt *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}
