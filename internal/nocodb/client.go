// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package nocodb is a minimal client for the NocoDB v2 REST API: attachment
// upload, record creation, and record listing for the posts table.
package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dunctk/whitepaper-to-socials/internal/httputil"
	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// Record is one row of the posts table. Field names follow the remote
// schema, not Go conventions.
type Record struct {
	Post             string            `json:"post"`
	Image            []json.RawMessage `json:"image,omitempty"`
	Published        *time.Time        `json:"published"`
	ImageDescription string            `json:"image_description"`
	ImageIndex       int               `json:"image_index"`
	ImageFilename    string            `json:"image_filename"`
	Variant          int               `json:"variant"`
}

// Client talks to one NocoDB table.
type Client struct {
	cfg        types.NocoDBConfig
	httpClient *http.Client
}

// NewClient validates the configuration and returns a client. Missing
// connection settings are a setup error, caught before any processing.
func NewClient(cfg types.NocoDBConfig) (*Client, error) {
	var missing []string
	for name, v := range map[string]string{
		"base URL": cfg.BaseURL,
		"API key":  cfg.APIKey,
		"table ID": cfg.TableID,
		"base ID":  cfg.BaseID,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("incomplete NocoDB configuration: missing %s", strings.Join(missing, ", "))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// UploadAttachment uploads a local file to NocoDB storage and returns the
// attachment object to embed in a record's image field. The uploaded name
// gets a uuid suffix so repeated runs never collide.
func (c *Client) UploadAttachment(ctx context.Context, path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attachment %s: %w", path, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := fmt.Sprintf("%s-%s%s", strings.TrimSuffix(base, ext), uuid.NewString()[:8], ext)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("writing upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v2/storage/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpError("upload", resp)
	}

	var uploaded []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return nil, fmt.Errorf("parsing upload response: %w", err)
	}
	if len(uploaded) == 0 {
		return nil, fmt.Errorf("upload response is empty")
	}
	return uploaded[0], nil
}

// CreateRecord inserts one row into the posts table.
func (c *Client) CreateRecord(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.recordsURL(nil), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating record request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return fmt.Errorf("storing record for image %d: %w", rec.ImageIndex, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpError("record create", resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// listPageSize is the per-request row limit when walking the whole table.
// NocoDB caps a single page at 1000 rows.
const listPageSize = 1000

// listPage is one page of a v2 list response.
type listPage struct {
	List     []Record `json:"list"`
	PageInfo struct {
		TotalRows  int  `json:"totalRows"`
		IsLastPage bool `json:"isLastPage"`
	} `json:"pageInfo"`
}

// ListRecords fetches up to limit rows, sorted by the given field
// ("-CreatedAt" for newest first). Without an explicit limit NocoDB
// returns its default page size only; use AllRecords for the full table.
func (c *Client) ListRecords(ctx context.Context, limit int, sort string) ([]Record, error) {
	page, err := c.list(ctx, limit, 0, sort)
	if err != nil {
		return nil, err
	}
	return page.List, nil
}

// AllRecords walks the table page by page until NocoDB reports the last
// page, so callers see every row regardless of server-side page caps.
func (c *Client) AllRecords(ctx context.Context, sort string) ([]Record, error) {
	var all []Record
	offset := 0
	for {
		page, err := c.list(ctx, listPageSize, offset, sort)
		if err != nil {
			return nil, err
		}
		all = append(all, page.List...)
		if page.PageInfo.IsLastPage || len(page.List) == 0 {
			return all, nil
		}
		offset += len(page.List)
	}
}

func (c *Client) list(ctx context.Context, limit, offset int, sort string) (listPage, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if offset > 0 {
		params.Set("offset", fmt.Sprintf("%d", offset))
	}
	if sort != "" {
		params.Set("sort", sort)
	}

	var page listPage
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.recordsURL(params), nil)
	if err != nil {
		return page, fmt.Errorf("creating list request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return page, fmt.Errorf("listing records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return page, httpError("record list", resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return page, fmt.Errorf("parsing list response: %w", err)
	}
	return page, nil
}

// RecentIntros returns the openings (first 20 words) of the most recently
// created posts, newest first, for prompt guidance.
func (c *Client) RecentIntros(ctx context.Context, limit int) ([]string, error) {
	records, err := c.ListRecords(ctx, limit, "-CreatedAt")
	if err != nil {
		return nil, err
	}

	var intros []string
	for _, rec := range records {
		words := strings.Fields(rec.Post)
		if len(words) == 0 {
			continue
		}
		if len(words) > 20 {
			words = words[:20]
		}
		intros = append(intros, strings.Join(words, " "))
	}
	return intros, nil
}

func (c *Client) recordsURL(params url.Values) string {
	u := fmt.Sprintf("%s/api/v2/tables/%s/records", c.cfg.BaseURL, c.cfg.TableID)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("xc-token", c.cfg.APIKey)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
}

func httpError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("NocoDB %s returned HTTP %d: %s", op, resp.StatusCode, strings.TrimSpace(string(data)))
}
