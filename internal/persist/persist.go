// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package persist stores finished post drafts, preferring the remote
// NocoDB table and falling back to a local CSV so drafts survive outages.
package persist

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dunctk/whitepaper-to-socials/internal/nocodb"
	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// timeNow is replaced in tests to pin the fallback file name.
var timeNow = time.Now

var csvHeader = []string{"post", "image", "image_description", "image_index", "variant", "created_at"}

// RemoteStore is the subset of the NocoDB client the persister needs.
type RemoteStore interface {
	UploadAttachment(ctx context.Context, path string) (json.RawMessage, error)
	CreateRecord(ctx context.Context, rec nocodb.Record) error
}

// Persister writes drafts to the remote table when one is configured,
// and to a dated CSV in Dir otherwise or when the remote write fails.
type Persister struct {
	// Remote is the NocoDB client. Nil means CSV-only operation.
	Remote RemoteStore

	// Dir is the directory fallback CSVs are written to.
	Dir string

	Logger *slog.Logger
}

// Save stores one draft. It returns fellBack=true when the remote store
// was attempted and failed but the CSV write succeeded; the caller still
// marks the image complete in that case, since the draft is not lost.
// An error means the draft could not be stored anywhere.
func (p *Persister) Save(ctx context.Context, draft types.PostDraft) (fellBack bool, err error) {
	log := p.logger().With("image_index", draft.ImageIndex, "variant", draft.Variant)

	remoteAttempted := false
	if p.Remote != nil {
		remoteAttempted = true
		if err := p.saveRemote(ctx, draft); err == nil {
			log.Info("draft stored remotely")
			return false, nil
		} else {
			log.Warn("remote store failed, falling back to CSV", "error", err)
		}
	}

	path, err := p.saveCSV(draft)
	if err != nil {
		return false, fmt.Errorf("storing draft for image %d: %w", draft.ImageIndex, err)
	}
	log.Info("draft stored in CSV", "path", path)
	return remoteAttempted, nil
}

func (p *Persister) saveRemote(ctx context.Context, draft types.PostDraft) error {
	rec := nocodb.Record{
		Post:             draft.Post,
		Published:        draft.PublishedAt,
		ImageDescription: draft.Description,
		ImageIndex:       draft.ImageIndex,
		ImageFilename:    draft.ImageFilename,
		Variant:          draft.Variant,
	}
	if draft.ImagePath != "" {
		att, err := p.Remote.UploadAttachment(ctx, draft.ImagePath)
		if err != nil {
			return err
		}
		rec.Image = []json.RawMessage{att}
	}
	return p.Remote.CreateRecord(ctx, rec)
}

// saveCSV appends the draft to posts_<YYYYMMDD>.csv, writing the header
// only when the file is new. Returns the file path written to.
func (p *Persister) saveCSV(draft types.PostDraft) (string, error) {
	path := filepath.Join(p.Dir, fmt.Sprintf("posts_%s.csv", timeNow().Format("20060102")))

	_, statErr := os.Stat(path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening fallback CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write(csvHeader); err != nil {
			return "", fmt.Errorf("writing CSV header: %w", err)
		}
	}
	row := []string{
		draft.Post,
		draft.ImagePath,
		draft.Description,
		strconv.Itoa(draft.ImageIndex),
		strconv.Itoa(draft.Variant),
		timeNow().UTC().Format(time.RFC3339),
	}
	if err := w.Write(row); err != nil {
		return "", fmt.Errorf("writing CSV row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing CSV: %w", err)
	}
	return path, nil
}

func (p *Persister) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
