// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

const sampleMarkdown = `# Whitepaper

Intro paragraph about the study.

![chart one](images-0.png)

Finance adoption reached 62% this year, up from 41%.

More commentary on the finance figure.

![chart two](images-1.png)

![chart three](images-2.png)

Closing remarks about methodology.
`

func TestExcerpt_TextAfterFigure(t *testing.T) {
	got := Excerpt(sampleMarkdown, 0)
	if !strings.Contains(got, "62%") {
		t.Errorf("excerpt for figure 0 should contain the following paragraph, got %q", got)
	}
	if strings.Contains(got, "![") {
		t.Errorf("excerpt must not contain placeholders, got %q", got)
	}
}

func TestExcerpt_FallsBackToPrecedingText(t *testing.T) {
	md := "Setup paragraph with the key finding.\n\n![only chart](images-0.png)\n"
	got := Excerpt(md, 0)
	if !strings.Contains(got, "key finding") {
		t.Errorf("expected adjacent-text fallback, got %q", got)
	}
}

func TestExcerpt_IndexOutOfRangeFallsBackToDocument(t *testing.T) {
	got := Excerpt(sampleMarkdown, 99)
	if !strings.Contains(got, "Whitepaper") {
		t.Errorf("expected leading document slice, got %q", got)
	}
}

func TestExcerpt_NonEmptyForNonEmptyMarkdown(t *testing.T) {
	inputs := []string{sampleMarkdown, "just text", "![x](y.png)"}
	for _, md := range inputs {
		if Excerpt(md, 0) == "" {
			t.Errorf("Excerpt(%q, 0) is empty", md)
		}
	}
	if Excerpt("", 0) != "" {
		t.Error("empty markdown should produce empty excerpt")
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("the quick brown fox", "the quick brown fox"); got != 1.0 {
		t.Errorf("identical texts: %f, want 1.0", got)
	}
	if got := Similarity("alpha beta gamma", "delta epsilon zeta"); got != 0.0 {
		t.Errorf("disjoint texts: %f, want 0.0", got)
	}
	if got := Similarity("", "anything"); got != 0.0 {
		t.Errorf("empty text: %f, want 0.0", got)
	}
	half := Similarity("a b c d", "a b x y")
	if half <= 0.0 || half >= 1.0 {
		t.Errorf("partial overlap should be strictly between 0 and 1, got %f", half)
	}
}

func TestCleanPost(t *testing.T) {
	got := CleanPost("  Finance leads — by a lot.\n")
	want := "Finance leads - by a lot."
	if got != want {
		t.Errorf("CleanPost = %q, want %q", got, want)
	}
}

func TestBuildPrompt_VariantsDiffer(t *testing.T) {
	analysis := types.ChartAnalysis{Title: "T", KeyMetric: "62%", Summary: "S"}

	p1 := BuildPrompt(analysis, "excerpt", 1, "The 2026 Adoption Report", "", nil)
	p2 := BuildPrompt(analysis, "excerpt", 2, "The 2026 Adoption Report", "draft one text", nil)

	if p1 == p2 {
		t.Fatal("variant prompts must differ")
	}
	if !strings.Contains(p1, "statistic") {
		t.Error("variant 1 should ask for a statistic opening")
	}
	if !strings.Contains(p2, "question or a bold claim") {
		t.Error("variant 2 should ask for a question or bold claim opening")
	}
	if !strings.Contains(p2, "draft one text") {
		t.Error("variant 2 prompt should include the first draft")
	}
	if !strings.Contains(p1, "62%") {
		t.Error("prompt should carry the key metric")
	}
}

func TestBuildPrompt_RecentIntros(t *testing.T) {
	analysis := types.ChartAnalysis{Title: "T", KeyMetric: "1", Summary: "S"}
	p := BuildPrompt(analysis, "", 1, "our latest whitepaper", "", []string{"Last week we found"})
	if !strings.Contains(p, "Last week we found") {
		t.Error("prompt should list recent intros to avoid")
	}
}

// scriptedCompleter returns canned responses in order.
type scriptedCompleter struct {
	responses []string
	prompts   []string
	err       error
}

func (s *scriptedCompleter) Complete(_ context.Context, _, user string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.prompts = append(s.prompts, user)
	if len(s.responses) == 0 {
		return "", fmt.Errorf("no scripted response left")
	}
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r, nil
}

func chart() types.ChartImage {
	return types.ChartImage{Index: 3, Path: "content/images/images-3.png", Width: 640, Height: 480}
}

func TestGenerate_TwoDistinctDrafts(t *testing.T) {
	sc := &scriptedCompleter{responses: []string{
		"Our research shows finance adoption hit 62% this year.",
		"What is holding the other 38% back? Our data points to integration cost.",
	}}
	g := &Generator{Client: sc, WhitepaperName: "The 2026 Adoption Report"}

	drafts, err := g.Generate(context.Background(), types.ChartAnalysis{Title: "T", KeyMetric: "62%", Summary: "S"}, "excerpt", chart())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2", len(drafts))
	}
	if drafts[0].Variant != 1 || drafts[1].Variant != 2 {
		t.Errorf("variants = %d, %d; want 1, 2", drafts[0].Variant, drafts[1].Variant)
	}
	if drafts[0].Post == drafts[1].Post {
		t.Error("drafts must have distinct text")
	}
	for _, d := range drafts {
		if d.ImageIndex != 3 || d.ImageFilename != "images-3.png" {
			t.Errorf("draft carries wrong image metadata: %+v", d)
		}
		if d.PublishedAt != nil {
			t.Error("new drafts must have a nil publish timestamp")
		}
		if d.Description == "" {
			t.Error("draft description must be populated")
		}
	}
}

func TestGenerate_RegeneratesSimilarSecondDraft(t *testing.T) {
	same := "Our research shows finance adoption hit 62% this year and we found it notable."
	sc := &scriptedCompleter{responses: []string{
		same,
		same, // duplicate second draft triggers regeneration
		"Why does finance lead every sector we studied? The integration story explains it.",
	}}
	g := &Generator{Client: sc}

	drafts, err := g.Generate(context.Background(), types.ChartAnalysis{Title: "T", KeyMetric: "62%", Summary: "S"}, "", chart())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sc.prompts) != 3 {
		t.Fatalf("expected 3 generation calls, got %d", len(sc.prompts))
	}
	if !strings.Contains(sc.prompts[2], "too similar") {
		t.Error("regeneration prompt should carry the stricter guidance")
	}
	if drafts[0].Post == drafts[1].Post {
		t.Error("regenerated draft must differ from draft 1")
	}
}

func TestGenerate_StillSimilarAfterRegenerationFails(t *testing.T) {
	same := "Identical draft text that never changes between calls at all."
	sc := &scriptedCompleter{responses: []string{same, same, same}}
	g := &Generator{Client: sc}

	_, err := g.Generate(context.Background(), types.ChartAnalysis{Title: "T", KeyMetric: "1", Summary: "S"}, "", chart())
	if err == nil {
		t.Fatal("expected error when drafts stay identical")
	}
}

func TestGenerate_PropagatesClientError(t *testing.T) {
	g := &Generator{Client: &scriptedCompleter{err: errors.New("model unavailable")}}
	_, err := g.Generate(context.Background(), types.ChartAnalysis{Title: "T"}, "", chart())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDescription(t *testing.T) {
	got := Description(types.ChartAnalysis{Title: "Adoption", KeyMetric: "62%", Summary: "Finance leads."})
	for _, want := range []string{"Adoption", "Key metric: 62%", "Finance leads."} {
		if !strings.Contains(got, want) {
			t.Errorf("description missing %q: %q", want, got)
		}
	}
}
