package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liamcoop/creditreports/report"
)

// ReportStore persists normalized reports.
type ReportStore interface {
	// Create stores a report, assigning its ID and timestamps
	Create(ctx context.Context, rep *report.Report) (*report.Record, error)

	// List returns every stored report, newest first
	List(ctx context.Context) ([]*report.Record, error)

	// Get returns one report or report.ErrNotFound
	Get(ctx context.Context, id string) (*report.Record, error)

	// Ping checks the backing storage is reachable
	Ping(ctx context.Context) error
}

// InMemoryReportStore implements ReportStore using an in-memory map.
// Thread-safe with RWMutex.
type InMemoryReportStore struct {
	records map[string]*report.Record
	mu      sync.RWMutex
	now     func() time.Time
}

// NewInMemoryReportStore creates a new in-memory report store
func NewInMemoryReportStore() *InMemoryReportStore {
	return &InMemoryReportStore{
		records: make(map[string]*report.Record),
		now:     time.Now,
	}
}

// Create adds a report under a fresh UUID
func (s *InMemoryReportStore) Create(_ context.Context, rep *report.Report) (*report.Record, error) {
	if rep == nil {
		return nil, fmt.Errorf("cannot store nil report")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	rec := &report.Record{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Report:    cloneReport(rep),
	}
	s.records[rec.ID] = rec

	return cloneRecord(rec), nil
}

// List returns all reports ordered by CreatedAt descending
func (s *InMemoryReportStore) List(_ context.Context) ([]*report.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*report.Record, 0, len(s.records))
	for _, rec := range s.records {
		list = append(list, cloneRecord(rec))
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// Get retrieves a report by ID
func (s *InMemoryReportStore) Get(_ context.Context, id string) (*report.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("report %s: %w", id, report.ErrNotFound)
	}
	return cloneRecord(rec), nil
}

// Ping always succeeds
func (s *InMemoryReportStore) Ping(context.Context) error {
	return nil
}

// Stored records are immutable; copies keep callers from mutating them.
func cloneRecord(rec *report.Record) *report.Record {
	out := *rec
	out.Report = cloneReport(&rec.Report)
	return &out
}

func cloneReport(rep *report.Report) report.Report {
	out := *rep
	out.CreditAccounts = append(make([]report.CreditAccount, 0, len(rep.CreditAccounts)), rep.CreditAccounts...)
	return out
}
