// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// analysisPrompt asks for the exact JSON shape ChartAnalysis unmarshals.
const analysisPrompt = `Analyze this chart or figure from a business whitepaper.

Return ONLY a JSON object with exactly these fields:
- "title": a short name for the chart
- "key_metric": the single most important number or comparison shown
- "one_sentence_summary": one plain-language sentence stating what the chart shows

Use only data visible in the image. Do not invent numbers. Do not wrap the JSON in markdown.`

// AnalyzeChart sends the image to the vision model and parses the structured
// description. Non-JSON model output counts as a stage failure and is
// retried inside the usual ceiling.
func (c *Client) AnalyzeChart(ctx context.Context, imagePath string) (types.ChartAnalysis, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return types.ChartAnalysis{}, fmt.Errorf("reading image %s: %w", imagePath, err)
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", imageMIME(imagePath), base64.StdEncoding.EncodeToString(data))
	messages := []Message{
		{
			Role: "user",
			Content: []ContentPart{
				{Type: "text", Text: analysisPrompt},
				{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}},
			},
		},
	}

	var analysis types.ChartAnalysis
	err = c.withRetry(ctx, func() error {
		content, callErr := c.chat(ctx, messages, maxAnalysisTokens, 0)
		if callErr != nil {
			return callErr
		}
		parsed, parseErr := ParseAnalysis(content)
		if parseErr != nil {
			return parseErr
		}
		analysis = parsed
		return nil
	})
	if err != nil {
		return types.ChartAnalysis{}, fmt.Errorf("analyzing %s: %w", filepath.Base(imagePath), err)
	}
	return analysis, nil
}

// ParseAnalysis decodes a ChartAnalysis from model output, tolerating
// markdown code fences around the JSON.
func ParseAnalysis(content string) (types.ChartAnalysis, error) {
	cleaned := StripFences(content)

	var analysis types.ChartAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return types.ChartAnalysis{}, fmt.Errorf("vision output is not valid JSON: %w", err)
	}
	if analysis.Title == "" && analysis.KeyMetric == "" && analysis.Summary == "" {
		return types.ChartAnalysis{}, fmt.Errorf("vision output JSON has none of the expected fields")
	}
	return analysis, nil
}

// StripFences removes a surrounding markdown code fence (``` or ```json)
// if present.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		// Drop the language tag line (e.g. "json").
		if lang := strings.TrimSpace(trimmed[:nl]); lang == "" || isFenceLang(lang) {
			trimmed = trimmed[nl+1:]
		}
	}
	if end := strings.LastIndex(trimmed, "```"); end >= 0 {
		trimmed = trimmed[:end]
	}
	return strings.TrimSpace(trimmed)
}

func isFenceLang(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// imageMIME maps a file extension to its MIME type; extraction only
// produces these formats.
func imageMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
