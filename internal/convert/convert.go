// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements PDF-to-Markdown conversion with pluggable backends.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Converter transforms a PDF file into Markdown text. Different backends
// (markitdown container, markitdown on PATH) implement this interface.
type Converter interface {
	// Convert reads a PDF at pdfPath and returns the Markdown content.
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// CachePath returns the cached Markdown path for a PDF inside workDir:
// workDir/<pdf basename without extension>.md.
func CachePath(workDir, pdfPath string) string {
	slug := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	return filepath.Join(workDir, slug+".md")
}

// ConvertCached converts a PDF to Markdown, caching the result under
// workDir. An existing cache file is reused without invoking the converter;
// a status line goes to w either way. Conversion runs once per document, so
// a stale cache is cleared by deleting the file, not by re-running.
func ConvertCached(ctx context.Context, c Converter, pdfPath, workDir string, w io.Writer) (string, error) {
	mdPath := CachePath(workDir, pdfPath)

	if data, err := os.ReadFile(mdPath); err == nil {
		fmt.Fprintf(w, "using cached markdown: %s\n", mdPath)
		return string(data), nil
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}

	fmt.Fprintf(w, "converting %s -> %s\n", pdfPath, mdPath)
	md, err := c.Convert(ctx, pdfPath)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("writing markdown cache: %w", err)
	}

	return md, nil
}
