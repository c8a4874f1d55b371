// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

func chatServer(t *testing.T, handler func(w http.ResponseWriter, req chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		handler(w, req)
	}))
}

func respond(w http.ResponseWriter, content string) {
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
}

func testClient(baseURL string) *Client {
	c := NewClient(types.AIConfig{Model: "test-model", APIKey: "test-key", MaxRetries: 2})
	c.baseURL = baseURL
	return c
}

func testImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "images-0.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestComplete(t *testing.T) {
	ts := chatServer(t, func(w http.ResponseWriter, req chatRequest) {
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		respond(w, "a generated post")
	})
	defer ts.Close()

	got, err := testClient(ts.URL).Complete(context.Background(), "you are a writer", "write a post")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a generated post" {
		t.Errorf("content = %q", got)
	}
}

func TestComplete_RetriesTransientFailures(t *testing.T) {
	var calls int32
	ts := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		respond(w, "eventually")
	})
	defer ts.Close()

	got, err := testClient(ts.URL).Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "eventually" {
		t.Errorf("content = %q", got)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestComplete_ExhaustsRetries(t *testing.T) {
	var calls int32
	ts := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})
	defer ts.Close()

	_, err := testClient(ts.URL).Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// MaxRetries 2: 1 initial + 2 retries.
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestAnalyzeChart(t *testing.T) {
	ts := chatServer(t, func(w http.ResponseWriter, req chatRequest) {
		parts := req.Messages[0].Content
		if len(parts) != 2 || parts[1].ImageURL == nil {
			t.Errorf("expected text + image parts, got %+v", parts)
		}
		respond(w, "```json\n{\"title\":\"Adoption by Sector\",\"key_metric\":\"62% in finance\",\"one_sentence_summary\":\"Finance leads adoption.\"}\n```")
	})
	defer ts.Close()

	got, err := testClient(ts.URL).AnalyzeChart(context.Background(), testImage(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Adoption by Sector" || got.KeyMetric != "62% in finance" {
		t.Errorf("analysis = %+v", got)
	}
}

func TestAnalyzeChart_MalformedJSONFails(t *testing.T) {
	ts := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		respond(w, "The chart shows finance leading adoption at 62%.")
	})
	defer ts.Close()

	_, err := testClient(ts.URL).AnalyzeChart(context.Background(), testImage(t))
	if err == nil {
		t.Fatal("expected error for non-JSON vision output")
	}
}

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    types.ChartAnalysis
		wantErr bool
	}{
		{
			name:    "bare JSON",
			content: `{"title":"T","key_metric":"42%","one_sentence_summary":"S."}`,
			want:    types.ChartAnalysis{Title: "T", KeyMetric: "42%", Summary: "S."},
		},
		{
			name:    "json fence",
			content: "```json\n{\"title\":\"T\",\"key_metric\":\"1\",\"one_sentence_summary\":\"S\"}\n```",
			want:    types.ChartAnalysis{Title: "T", KeyMetric: "1", Summary: "S"},
		},
		{
			name:    "bare fence",
			content: "```\n{\"title\":\"T\",\"key_metric\":\"1\",\"one_sentence_summary\":\"S\"}\n```",
			want:    types.ChartAnalysis{Title: "T", KeyMetric: "1", Summary: "S"},
		},
		{
			name:    "prose",
			content: "here is the analysis you asked for",
			wantErr: true,
		},
		{
			name:    "empty object",
			content: "{}",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalysis(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestImageMIME(t *testing.T) {
	tests := map[string]string{
		"a/images-0.png":  "image/png",
		"a/images-1.jpg":  "image/jpeg",
		"a/images-2.tiff": "image/tiff",
		"a/images-3.webp": "image/webp",
	}
	for path, want := range tests {
		if got := imageMIME(path); got != want {
			t.Errorf("imageMIME(%q) = %q, want %q", path, got, want)
		}
	}
}
