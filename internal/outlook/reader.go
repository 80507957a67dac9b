package outlook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/swaanand-ops/outlook-mail-reader/internal/filter"
	"github.com/swaanand-ops/outlook-mail-reader/internal/graph"
	"github.com/swaanand-ops/outlook-mail-reader/internal/instrumentation"
	"github.com/swaanand-ops/outlook-mail-reader/internal/logging"
)

// MessageLister is the narrow retrieval surface the reader needs.
type MessageLister interface {
	ForeachMessage(ctx context.Context, q graph.Query, fn func(*graph.Message) error) error
}

// Reader runs the search pipeline: token, paged retrieval with the sender
// filter pushed down, client-side keyword matching with early termination,
// and formatting.
type Reader struct {
	client   MessageLister
	folder   string
	pageSize int
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithFolder scopes searches to a mail folder and annotates deep links with
// its ID.
func WithFolder(folderID string) ReaderOption {
	return func(r *Reader) { r.folder = folderID }
}

// WithPageSize sets the server page size for retrieval.
func WithPageSize(n int) ReaderOption {
	return func(r *Reader) { r.pageSize = n }
}

// WithReaderLogger sets the structured logger.
func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) { r.logger = logger }
}

// WithReaderMetrics sets the metrics recorder.
func WithReaderMetrics(m *instrumentation.Metrics) ReaderOption {
	return func(r *Reader) { r.metrics = m }
}

// NewReader creates a reader over the given retrieval client.
func NewReader(client MessageLister, opts ...ReaderOption) *Reader {
	r := &Reader{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search returns the formatted messages matching the criteria, in server
// order, at most crit.MaxItems of them. Two identical calls against an
// unchanged mailbox return identical ordered results.
func (r *Reader) Search(ctx context.Context, crit filter.Criteria) ([]FormattedEmail, error) {
	engine, err := filter.NewEngine(crit)
	if err != nil {
		return nil, err
	}

	q := graph.Query{
		Sender:   crit.Sender,
		Folder:   r.folder,
		PageSize: r.pageSize,
	}

	results := []FormattedEmail{}
	err = r.client.ForeachMessage(ctx, q, func(m *graph.Message) error {
		if !engine.Matches(m) {
			return nil
		}
		results = append(results, Format(m, r.folder))
		if engine.Done() {
			return graph.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	r.metrics.RecordSearchMatches(ctx, int64(len(results)))
	r.logger.Info("search completed",
		logging.Operation("outlook.search"),
		logging.SenderHash(crit.Sender),
		logging.Matches(len(results)))
	return results, nil
}

// SearchWithStats runs Search and summarizes the result set. keywords
// names the watched keyword buckets; when empty, the criteria keyword is
// the only bucket.
func (r *Reader) SearchWithStats(ctx context.Context, crit filter.Criteria, keywords []string) ([]FormattedEmail, *AggregateStats, error) {
	results, err := r.Search(ctx, crit)
	if err != nil {
		return nil, nil, err
	}
	if len(keywords) == 0 && crit.Keyword != "" {
		keywords = []string{crit.Keyword}
	}
	return results, Summarize(results, keywords), nil
}
