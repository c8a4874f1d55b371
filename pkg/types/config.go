// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the configuration and domain types shared across
// pipeline stages.
package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "whitepaper-to-socials/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call the generation provider.
type AIConfig struct {
	// Model is the model identifier (e.g. "gpt-4.1").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the provider API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint. Empty means the default
	// OpenAI-compatible endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// NocoDBConfig holds settings for the remote tabular store.
type NocoDBConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the NocoDB instance URL (e.g. "https://app.nocodb.com").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is sent as the xc-token header.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// TableID identifies the records table.
	TableID string `json:"table_id" yaml:"table_id"`

	// BaseID identifies the NocoDB base (project).
	BaseID string `json:"base_id" yaml:"base_id"`
}

// ConversionBackend identifies the PDF-to-Markdown conversion strategy.
type ConversionBackend string

const (
	// BackendContainer pipes the PDF through the markitdown container image.
	BackendContainer ConversionBackend = "container"

	// BackendExec runs a markitdown binary found on PATH.
	BackendExec ConversionBackend = "exec"
)

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Backend selects the conversion strategy: container or exec.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// WorkDir is the directory for cached Markdown and other run artifacts.
	WorkDir string `json:"work_dir" yaml:"work_dir"`
}

// ExtractorBackend identifies the chart-image extraction strategy.
type ExtractorBackend string

const (
	// ExtractorEmbedded pulls embedded raster images out of the PDF.
	ExtractorEmbedded ExtractorBackend = "embedded"

	// ExtractorRender rasterizes whole pages, for PDFs whose charts are
	// vector drawings with no embedded raster images.
	ExtractorRender ExtractorBackend = "render"
)

// ImagesConfig holds settings for the image extraction stage.
type ImagesConfig struct {
	// Backend selects the extraction strategy: embedded or render.
	Backend ExtractorBackend `json:"backend" yaml:"backend"`

	// Dir is the directory extracted images are written to.
	Dir string `json:"dir" yaml:"dir"`

	// MinWidth filters out decorative images; only images strictly wider
	// than this many pixels are kept (default 300).
	MinWidth int `json:"min_width" yaml:"min_width"`
}

// PipelineConfig groups all stage configurations for a run.
type PipelineConfig struct {
	AI         AIConfig         `json:"ai" yaml:"ai"`
	NocoDB     NocoDBConfig     `json:"nocodb" yaml:"nocodb"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Images     ImagesConfig     `json:"images" yaml:"images"`

	// StatePath is the SQLite state database path (default "state.db").
	StatePath string `json:"state_path" yaml:"state_path"`

	// WhitepaperName is the display name used when a post references the
	// report by name (default "our latest whitepaper").
	WhitepaperName string `json:"whitepaper_name" yaml:"whitepaper_name"`

	// TestMode processes exactly one new image and exits.
	TestMode bool `json:"test_mode" yaml:"test_mode"`
}
