package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cleanghana/internal/platform/metrics"
	"cleanghana/pkg/sentinel"
)

// MemoryStore keeps the collection in process memory. It is the demo and
// test implementation; PostgresStore is the durable one.
type MemoryStore struct {
	mu          sync.RWMutex
	records     map[string]Record
	lastCreated time.Time
	hub         *hub
	now         func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock sets the timestamp source for testability.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory report store. Metrics may be nil.
func NewMemoryStore(m *metrics.Metrics, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]Record),
		hub:     newHub(m),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(ctx context.Context, n NewRecord) (Record, error) {
	if err := n.Validate(); err != nil {
		return Record{}, err
	}
	initial, err := InitialStatus(n.Type)
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	createdAt := s.now().UTC()
	// CreatedAt is the sort key, keep it strictly monotonic.
	if !createdAt.After(s.lastCreated) {
		createdAt = s.lastCreated.Add(time.Nanosecond)
	}
	s.lastCreated = createdAt

	rec := Record{
		ID:               uuid.NewString(),
		Type:             n.Type,
		Status:           initial,
		Location:         *n.Location,
		ReporterID:       n.ReporterID,
		CreatedAt:        createdAt,
		Description:      n.Description,
		WasteCategory:    n.WasteCategory,
		ImageRef:         n.ImageRef,
		MaterialType:     n.MaterialType,
		QuantityEstimate: n.QuantityEstimate,
	}
	s.records[rec.ID] = rec
	s.mu.Unlock()

	_ = s.hub.broadcast(ctx, s.snapshot)
	return rec, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) List(ctx context.Context, f Filter) (Snapshot, error) {
	return s.snapshot(ctx, f)
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status Status) (Record, error) {
	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return Record{}, sentinel.ErrNotFound
	}
	rec.Status = status
	s.records[id] = rec
	s.mu.Unlock()

	_ = s.hub.broadcast(ctx, s.snapshot)
	return rec, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, f Filter) (*Subscription, error) {
	return s.hub.subscribe(ctx, f, s.snapshot)
}

func (s *MemoryStore) Close() error {
	s.hub.close()
	return nil
}

func (s *MemoryStore) snapshot(_ context.Context, f Filter) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(Snapshot, 0, len(s.records))
	for _, rec := range s.records {
		if f.Matches(rec) {
			snap = append(snap, rec)
		}
	}
	sort.Slice(snap, func(i, j int) bool {
		if !snap[i].CreatedAt.Equal(snap[j].CreatedAt) {
			return snap[i].CreatedAt.After(snap[j].CreatedAt)
		}
		return snap[i].ID < snap[j].ID
	})
	return snap, nil
}
