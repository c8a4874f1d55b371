// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package posts generates LinkedIn post drafts from chart analyses.
package posts

import (
	"strings"
)

// maxExcerptLen caps the markdown context sent with a generation prompt.
const maxExcerptLen = 8000

// Excerpt returns the Markdown text associated with the index-th figure
// placeholder: the prose following it, then the prose preceding it when the
// following text is empty, then a leading slice of the whole document. For
// non-empty markdown the result is never empty.
func Excerpt(markdown string, index int) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}

	positions := figurePositions(markdown)
	if index >= 0 && index < len(positions) {
		pos := positions[index]

		if after := proseAround(markdown[pos:], true); after != "" {
			return truncate(after, maxExcerptLen)
		}
		if before := proseAround(markdown[:pos], false); before != "" {
			return truncate(before, maxExcerptLen)
		}
	}

	return truncate(strings.TrimSpace(markdown), maxExcerptLen)
}

// figurePositions returns the byte offsets of Markdown image placeholders
// (![...](...)) in document order.
func figurePositions(markdown string) []int {
	var positions []int
	offset := 0
	for {
		i := strings.Index(markdown[offset:], "![")
		if i < 0 {
			return positions
		}
		positions = append(positions, offset+i)
		offset += i + 2
	}
}

// proseAround extracts adjacent prose from text: when forward is true the
// paragraphs after the first line (the placeholder itself), otherwise the
// last paragraphs before the cut. Placeholder-only and blank lines are
// dropped.
func proseAround(text string, forward bool) string {
	lines := strings.Split(text, "\n")
	if forward && len(lines) > 0 {
		lines = lines[1:]
	}

	var kept []string
	if forward {
		for _, line := range lines {
			if isPlaceholderLine(line) {
				continue
			}
			kept = append(kept, line)
			if len(kept) >= 40 {
				break
			}
		}
	} else {
		for i := len(lines) - 1; i >= 0 && len(kept) < 40; i-- {
			if isPlaceholderLine(lines[i]) {
				continue
			}
			kept = append([]string{lines[i]}, kept...)
		}
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isPlaceholderLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "![")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
