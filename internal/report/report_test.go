// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dunctk/whitepaper-to-socials/internal/nocodb"
)

func sampleRecords() []nocodb.Record {
	return []nocodb.Record{
		{Post: "second take on chart 1", ImageIndex: 1, Variant: 2, ImageFilename: "images-1.png"},
		{Post: "first take on chart 0", ImageIndex: 0, Variant: 1, ImageFilename: "images-0.png", ImageDescription: "Chart: adoption"},
		{Post: "first take on chart 1", ImageIndex: 1, Variant: 1, ImageFilename: "images-1.png"},
		{Post: "second take on chart 0", ImageIndex: 0, Variant: 2, ImageFilename: "images-0.png"},
	}
}

func TestLayout_OnePagePerDraftOrdered(t *testing.T) {
	layout := Layout(sampleRecords(), t.TempDir())

	if layout.Paper != "A4" {
		t.Errorf("paper = %q", layout.Paper)
	}
	if len(layout.Pages) != 4 {
		t.Fatalf("got %d pages, want 4", len(layout.Pages))
	}

	wantPosts := []string{
		"first take on chart 0",
		"second take on chart 0",
		"first take on chart 1",
		"second take on chart 1",
	}
	for i, want := range wantPosts {
		page, ok := layout.Pages[pageKey(i)]
		if !ok {
			t.Fatalf("missing page %s", pageKey(i))
		}
		if len(page.Content.Text) < 2 {
			t.Fatalf("page %s has %d text boxes, want at least post and footer", pageKey(i), len(page.Content.Text))
		}
		if got := page.Content.Text[0].Value; got != want {
			t.Errorf("page %s post = %q, want %q", pageKey(i), got, want)
		}
		footer := page.Content.Text[len(page.Content.Text)-1].Value
		if !strings.Contains(footer, "image ") || !strings.Contains(footer, "variant ") {
			t.Errorf("page %s footer = %q, want index and variant", pageKey(i), footer)
		}
	}
}

func pageKey(i int) string {
	return string(rune('1' + i))
}

func TestLayout_CoversEveryDraftBeyondOnePage(t *testing.T) {
	// More drafts than a remote page default (25) must still yield one
	// page each.
	var records []nocodb.Record
	for i := 0; i < 30; i++ {
		records = append(records, nocodb.Record{
			Post:       fmt.Sprintf("draft for chart %d", i),
			ImageIndex: i,
			Variant:    1,
		})
	}

	layout := Layout(records, t.TempDir())
	if len(layout.Pages) != 30 {
		t.Fatalf("got %d pages for %d stored drafts", len(layout.Pages), len(records))
	}
	last, ok := layout.Pages["30"]
	if !ok {
		t.Fatal("missing page 30")
	}
	if last.Content.Text[0].Value != "draft for chart 29" {
		t.Errorf("page 30 post = %q", last.Content.Text[0].Value)
	}
}

func TestLayout_EmbedsLocalImagesOnly(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "images-0.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	records := []nocodb.Record{
		{Post: "has a local image", ImageIndex: 0, Variant: 1, ImageFilename: "images-0.png"},
		{Post: "image was cleaned up", ImageIndex: 1, Variant: 1, ImageFilename: "images-1.png"},
	}
	layout := Layout(records, dir)

	if n := len(layout.Pages["1"].Content.Image); n != 1 {
		t.Errorf("page 1 has %d images, want 1", n)
	}
	if n := len(layout.Pages["2"].Content.Image); n != 0 {
		t.Errorf("page 2 has %d images, want 0 (file missing)", n)
	}
}

func TestLayout_IncludesDescription(t *testing.T) {
	layout := Layout(sampleRecords(), t.TempDir())

	page := layout.Pages["1"]
	found := false
	for _, box := range page.Content.Text {
		if box.Value == "Chart: adoption" {
			found = true
		}
	}
	if !found {
		t.Error("description text missing from page 1")
	}
}

func TestLayout_Deterministic(t *testing.T) {
	dir := t.TempDir()
	a := Layout(sampleRecords(), dir)
	b := Layout(sampleRecords(), dir)

	if !reflect.DeepEqual(a, b) {
		t.Error("layouts differ across calls for the same input")
	}

	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	jb, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(ja) != string(jb) {
		t.Error("serialized layouts differ for the same input")
	}
}

func TestLayout_DoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	first := records[0].Post
	Layout(records, t.TempDir())
	if records[0].Post != first {
		t.Error("Layout reordered the caller's slice")
	}
}

type failingLister struct{}

func (failingLister) AllRecords(context.Context, string) ([]nocodb.Record, error) {
	return nil, errors.New("boom")
}

type emptyLister struct{}

func (emptyLister) AllRecords(context.Context, string) ([]nocodb.Record, error) {
	return nil, nil
}

func TestBuild_PropagatesListErrors(t *testing.T) {
	b := &Builder{Remote: failingLister{}}
	if err := b.Build(context.Background(), filepath.Join(t.TempDir(), "out.pdf")); err == nil {
		t.Fatal("expected error from failing lister")
	}
}

func TestBuild_RejectsEmptyStore(t *testing.T) {
	b := &Builder{Remote: emptyLister{}}
	if err := b.Build(context.Background(), filepath.Join(t.TempDir(), "out.pdf")); err == nil {
		t.Fatal("expected error when no drafts exist")
	}
}
