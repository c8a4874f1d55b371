// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package posts

import (
	"context"
	"fmt"
	"strings"

	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// similarityThreshold is the Jaccard word-overlap ratio above which two
// posts count as duplicates of each other.
const similarityThreshold = 0.6

// Completer is the text-generation capability the generator needs.
// *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator produces the two post drafts for one chart.
type Generator struct {
	Client Completer

	// WhitepaperName is the display name used when a post references the
	// report (e.g. "our latest whitepaper").
	WhitepaperName string

	// RecentIntros lists openings of recently stored posts; new drafts are
	// steered away from them.
	RecentIntros []string
}

// Generate produces two drafts with distinct text for the given chart. The
// second draft is regenerated once with stricter guidance if it comes back
// too close to the first; a still-similar result after that is an error,
// never two near-identical drafts.
func (g *Generator) Generate(ctx context.Context, analysis types.ChartAnalysis, excerpt string, img types.ChartImage) ([]types.PostDraft, error) {
	description := Description(analysis)

	first, err := g.generateVariant(ctx, analysis, excerpt, 1, "")
	if err != nil {
		return nil, fmt.Errorf("generating draft 1: %w", err)
	}

	second, err := g.generateVariant(ctx, analysis, excerpt, 2, first)
	if err != nil {
		return nil, fmt.Errorf("generating draft 2: %w", err)
	}

	if Similarity(first, second) > similarityThreshold || tooCloseToRecent(second, g.RecentIntros) {
		prompt := BuildPrompt(analysis, excerpt, 2, g.name(), first, g.RecentIntros) + stricterSuffix
		raw, retryErr := g.Client.Complete(ctx, SystemPrompt, prompt)
		if retryErr != nil {
			return nil, fmt.Errorf("regenerating draft 2: %w", retryErr)
		}
		second = CleanPost(raw)
	}

	if second == "" || Similarity(first, second) > similarityThreshold {
		return nil, fmt.Errorf("draft 2 still duplicates draft 1 after regeneration")
	}

	drafts := make([]types.PostDraft, 0, 2)
	for variant, text := range map[int]string{1: first, 2: second} {
		drafts = append(drafts, types.PostDraft{
			Post:          text,
			Variant:       variant,
			ImagePath:     img.Path,
			ImageFilename: img.Filename(),
			Description:   description,
			ImageIndex:    img.Index,
		})
	}
	if drafts[0].Variant == 2 {
		drafts[0], drafts[1] = drafts[1], drafts[0]
	}
	return drafts, nil
}

func (g *Generator) generateVariant(ctx context.Context, analysis types.ChartAnalysis, excerpt string, variant int, firstDraft string) (string, error) {
	prompt := BuildPrompt(analysis, excerpt, variant, g.name(), firstDraft, g.RecentIntros)
	raw, err := g.Client.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		return "", err
	}
	post := CleanPost(raw)
	if post == "" {
		return "", fmt.Errorf("model returned an empty post")
	}
	return post, nil
}

func (g *Generator) name() string {
	if g.WhitepaperName != "" {
		return g.WhitepaperName
	}
	return "our latest whitepaper"
}

// CleanPost normalizes model output: trims whitespace and replaces em
// dashes, which the style rules forbid but models still emit.
func CleanPost(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "—", "-"))
}

// Description renders the chart analysis as the plain-text description
// persisted alongside each draft.
func Description(a types.ChartAnalysis) string {
	var parts []string
	if a.Title != "" {
		parts = append(parts, a.Title)
	}
	if a.KeyMetric != "" {
		parts = append(parts, "Key metric: "+a.KeyMetric)
	}
	if a.Summary != "" {
		parts = append(parts, a.Summary)
	}
	return strings.Join(parts, "\n")
}

// Similarity computes Jaccard word overlap between two texts, in [0, 1].
func Similarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

// tooCloseToRecent reports whether a draft echoes any recent post opening.
func tooCloseToRecent(post string, recentIntros []string) bool {
	words := strings.Fields(post)
	n := 20
	if len(words) < n {
		n = len(words)
	}
	intro := strings.Join(words[:n], " ")
	for _, recent := range recentIntros {
		if Similarity(intro, recent) > similarityThreshold {
			return true
		}
	}
	return false
}
