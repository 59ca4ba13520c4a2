package dunning

import (
	"context"
	"sync"
	"time"

	domaindunning "github.com/mahnwerk/backend/internal/domain/dunning"
	"github.com/mahnwerk/backend/internal/domain/invoicing"
	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockInvoiceQueryPort is a testify mock for the invoice read port
type mockInvoiceQueryPort struct {
	mock.Mock
}

func (m *mockInvoiceQueryPort) Get(ctx context.Context, invoiceID uuid.UUID) (*invoicing.InvoiceSnapshot, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.InvoiceSnapshot), args.Error(1)
}

func (m *mockInvoiceQueryPort) ListOverdue(ctx context.Context, asOf time.Time) ([]invoicing.InvoiceSnapshot, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoicing.InvoiceSnapshot), args.Error(1)
}

// memoryCaseRepository is an in-memory DunningCaseRepository that enforces
// the same guarantees as the SQL implementation: optimistic version checks
// and the unique (invoice_id, level) constraint. It hands out deep copies so
// concurrent callers race the way real transactions do.
type memoryCaseRepository struct {
	mu    sync.Mutex
	cases map[uuid.UUID]*domaindunning.DunningCase // keyed by invoice ID
}

func newMemoryCaseRepository() *memoryCaseRepository {
	return &memoryCaseRepository{cases: make(map[uuid.UUID]*domaindunning.DunningCase)}
}

func copyCase(c *domaindunning.DunningCase) *domaindunning.DunningCase {
	dup := *c
	dup.Notices = make([]domaindunning.DunningNotice, len(c.Notices))
	copy(dup.Notices, c.Notices)
	dup.ClearDomainEvents()
	return &dup
}

func (r *memoryCaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domaindunning.DunningCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cases {
		if c.ID == id {
			return copyCase(c), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryCaseRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*domaindunning.DunningCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[invoiceID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyCase(c), nil
}

func (r *memoryCaseRepository) FindByNoticeID(ctx context.Context, noticeID uuid.UUID) (*domaindunning.DunningCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cases {
		for i := range c.Notices {
			if c.Notices[i].ID == noticeID {
				return copyCase(c), nil
			}
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryCaseRepository) FindAll(ctx context.Context, filter domaindunning.CaseFilter) ([]domaindunning.DunningCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domaindunning.DunningCase, 0, len(r.cases))
	for _, c := range r.cases {
		out = append(out, *copyCase(c))
	}
	return out, nil
}

func (r *memoryCaseRepository) Save(ctx context.Context, c *domaindunning.DunningCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.cases[c.InvoiceID]; exists {
		// unique invoice_id constraint
		return shared.ErrConcurrencyConflict
	}
	r.cases[c.InvoiceID] = copyCase(c)
	return nil
}

func (r *memoryCaseRepository) SaveWithLock(ctx context.Context, c *domaindunning.DunningCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cases[c.InvoiceID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.GetVersion() != c.GetVersion()-1 {
		return shared.ErrConcurrencyConflict
	}
	seen := make(map[domaindunning.DunningLevel]int)
	for i := range c.Notices {
		seen[c.Notices[i].Level]++
		if seen[c.Notices[i].Level] > 1 {
			// unique (invoice_id, level) constraint
			return shared.ErrConcurrencyConflict
		}
	}
	r.cases[c.InvoiceID] = copyCase(c)
	return nil
}

func (r *memoryCaseRepository) Count(ctx context.Context, filter domaindunning.CaseFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.cases)), nil
}

// memoryDedupStore is a minimal idempotency store for sweep tests
type memoryDedupStore struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryDedupStore() *memoryDedupStore {
	return &memoryDedupStore{keys: make(map[string]bool)}
}

func (s *memoryDedupStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memoryDedupStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *memoryDedupStore) Close() error { return nil }
