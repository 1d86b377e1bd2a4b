package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/liquidlens/liquidlens/internal/domain"
)

// BlobWriter is the upload surface the archiver needs. *Writer satisfies it.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver moves aged opportunity rows out of the primary store into
// month-partitioned JSONL objects. Rows are deleted only after the upload
// succeeds.
type Archiver struct {
	writer BlobWriter
	opps   domain.OpportunityStore
	logger *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(writer BlobWriter, opps domain.OpportunityStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		opps:   opps,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveOpportunities uploads every opportunity detected before the cutoff
// as archive/opportunities/YYYY-MM.jsonl, then deletes the archived rows.
// The number of archived rows is returned.
func (a *Archiver) ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error) {
	opps, err := a.opps.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive query: %w", err)
	}
	if len(opps) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(opps)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive marshal: %w", err)
	}

	path := archivePath("opportunities", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive upload: %w", err)
	}

	deleted, err := a.opps.DeleteBefore(ctx, before)
	if err != nil {
		// The object is uploaded; rows will be retried next cycle and the
		// upload overwritten.
		return int64(len(opps)), fmt.Errorf("s3blob: archive delete: %w", err)
	}

	a.logger.InfoContext(ctx, "archived opportunities",
		slog.String("path", path),
		slog.Int64("deleted", deleted),
	)
	return int64(len(opps)), nil
}

// archivePath partitions archive objects by the year-month of the cutoff.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL encodes records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
