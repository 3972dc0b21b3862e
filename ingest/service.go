// Package ingest turns uploaded bureau documents into stored reports.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/liamcoop/creditreports/cache"
	"github.com/liamcoop/creditreports/extract"
	"github.com/liamcoop/creditreports/internal/logger"
	"github.com/liamcoop/creditreports/internal/metrics"
	"github.com/liamcoop/creditreports/report"
	"github.com/liamcoop/creditreports/store"
	"github.com/liamcoop/creditreports/xmltree"
)

// DefaultMaxBytes bounds the size of a single uploaded document.
const DefaultMaxBytes int64 = 10 << 20

// ErrTooLarge is returned when a document exceeds the configured size limit.
var ErrTooLarge = errors.New("document exceeds upload size limit")

// Service coordinates extraction, persistence and caching of reports.
type Service struct {
	store     store.ReportStore
	cache     cache.ReportCache
	extractor *extract.Extractor
	maxBytes  int64
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables read-through caching for List and Get.
func WithCache(c cache.ReportCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithExtractor replaces the default extractor.
func WithExtractor(x *extract.Extractor) Option {
	return func(s *Service) {
		if x != nil {
			s.extractor = x
		}
	}
}

// WithMaxBytes sets the upload size limit. Non-positive values keep the default.
func WithMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// NewService creates a Service backed by st.
func NewService(st store.ReportStore, opts ...Option) *Service {
	s := &Service{
		store:     st,
		cache:     cache.NoopCache{},
		extractor: extract.New(),
		maxBytes:  DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest reads one XML document, normalizes it and persists the result.
// Nothing is stored when reading or extraction fails.
func (s *Service) Ingest(ctx context.Context, r io.Reader) (*report.Record, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		metrics.ReportsIngested.WithLabelValues(metrics.OutcomeParseError).Inc()
		return nil, &xmltree.ParseError{Err: fmt.Errorf("failed to read document: %w", err)}
	}
	if int64(len(data)) > s.maxBytes {
		metrics.ReportsIngested.WithLabelValues(metrics.OutcomeParseError).Inc()
		return nil, ErrTooLarge
	}

	start := time.Now()
	rpt, err := s.extractor.ExtractBytes(data)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := Outcome(err)
		metrics.ReportsIngested.WithLabelValues(outcome).Inc()
		logger.Warn("rejected credit report", "outcome", outcome, "bytes", len(data), "error", err)
		return nil, err
	}
	metrics.AccountsPerReport.Observe(float64(len(rpt.CreditAccounts)))

	rec, err := s.store.Create(ctx, rpt)
	if err != nil {
		metrics.ReportsIngested.WithLabelValues(metrics.OutcomeStoreError).Inc()
		logger.Error("failed to store credit report", "error", err)
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	s.cache.InvalidateList(ctx)
	s.cache.SetReport(ctx, rec)

	metrics.ReportsIngested.WithLabelValues(metrics.OutcomeOK).Inc()
	logger.Info("credit report stored",
		"id", rec.ID,
		"accounts", len(rec.CreditAccounts),
		"creditScore", rec.BasicDetails.CreditScore,
	)
	return rec, nil
}

// List returns every stored report, newest first.
func (s *Service) List(ctx context.Context) ([]*report.Record, error) {
	list, gen, ok := s.cache.GetList(ctx)
	if ok {
		return list, nil
	}

	// gen is observed before the store read, so an upload that lands in
	// between makes this listing stale and it is never served.
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	s.cache.SetList(ctx, gen, list)
	return list, nil
}

// Get returns one stored report. Unknown or malformed ids yield report.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*report.Record, error) {
	if rec, ok := s.cache.GetReport(ctx, id); ok {
		return rec, nil
	}

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetReport(ctx, rec)
	return rec, nil
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Outcome classifies an extraction error into its metrics label.
func Outcome(err error) string {
	var parseErr *xmltree.ParseError
	var formatErr *xmltree.FormatError
	var procErr *extract.ProcessingError

	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &formatErr):
		return metrics.OutcomeFormatError
	case errors.As(err, &parseErr), errors.Is(err, ErrTooLarge):
		return metrics.OutcomeParseError
	case errors.As(err, &procErr):
		return metrics.OutcomeProcessingError
	default:
		return metrics.OutcomeStoreError
	}
}
