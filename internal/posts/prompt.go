// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package posts

import (
	"fmt"
	"strings"

	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// SystemPrompt frames every generation call.
const SystemPrompt = `You are a senior business professional writing LinkedIn posts for your organization's research publication. Use "our research", "we found", etc. Only reference data that actually appears in the chart analysis provided - never invent statistics. Write authentically, avoiding AI-sounding language and marketing speak.`

// hook names the rhetorical opening each variant must use. Two variants get
// different hooks so the drafts read differently.
var hooks = map[int]string{
	1: "open with the most specific statistic from the chart analysis",
	2: "open with a pointed question or a bold claim the chart supports (do NOT open with a statistic)",
}

// requirements carried from the original tool's style rules.
const requirements = `STRICT REQUIREMENTS:
- NO emojis whatsoever
- Break up text with line breaks for readability
- Maximum 3 hashtags, make them specific and relevant
- Never use em dashes, use other punctuation
- Write like a real person, not marketing copy
- Use concrete, specific numbers and facts from the chart analysis
- Keep the post under 280 words
- Use first-person plural: "our research", "we found", "our data shows"
- Only reference statistics that appear in the chart analysis; describe trends instead when numbers are unclear

Return ONLY the post text as plain text. No JSON, no markdown formatting, no preamble.`

// BuildPrompt assembles the user prompt for one draft variant. firstDraft is
// empty for variant 1; for variant 2 it is shown so the model takes a
// different angle. recentIntros, when present, lists openings of recently
// stored posts the new draft must not echo.
func BuildPrompt(analysis types.ChartAnalysis, excerpt string, variant int, whitepaperName, firstDraft string, recentIntros []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write ONE LinkedIn post about this chart from %s.\n\n", whitepaperName)
	fmt.Fprintf(&b, "CHART ANALYSIS (focus the post on this):\nTitle: %s\nKey metric: %s\nSummary: %s\n\n",
		analysis.Title, analysis.KeyMetric, analysis.Summary)

	if excerpt != "" {
		fmt.Fprintf(&b, "WHITEPAPER CONTEXT (for broader understanding):\n%s\n\n", excerpt)
	}

	fmt.Fprintf(&b, "OPENING: %s.\n\n", hooks[variant])

	if firstDraft != "" {
		fmt.Fprintf(&b, "A first post about this chart already exists. Take a completely different angle, structure, and vocabulary from it:\n%s\n\n", firstDraft)
	}

	if len(recentIntros) > 0 {
		b.WriteString("Avoid starting the post with language similar to these recent post beginnings:\n")
		for _, intro := range recentIntros {
			fmt.Fprintf(&b, "- %q\n", intro)
		}
		b.WriteByte('\n')
	}

	b.WriteString(requirements)
	return b.String()
}

// stricterSuffix is appended when a draft comes back too similar and has to
// be regenerated.
const stricterSuffix = "\n\nIMPORTANT: The previous attempt was too similar to existing content. Be extremely different: change the opening, the structure, and the vocabulary entirely."
