package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Julioneves77/sr-backend-api/internal/model"
)

// TicketStore is the storage contract used by the HTTP handlers.  The only
// implementation today is the in-process MemoryTicketRepo; a durable store can
// replace it without touching call sites.
type TicketStore interface {
	Create(ctx context.Context, attrs map[string]any) (*model.Ticket, error)
	List(ctx context.Context) ([]*model.Ticket, error)
	Get(ctx context.Context, id int64) (*model.Ticket, error)
	Update(ctx context.Context, id int64, patch map[string]any) (*model.Ticket, error)
	Count(ctx context.Context) int
}

// CodeSource produces display codes for new tickets.
type CodeSource interface {
	Generate() string
}

// MemoryTicketRepo keeps tickets in memory for the lifetime of the process.
// Tickets are indexed by id and kept in creation order; List returns them
// newest first.  All methods are safe for concurrent use and hand out copies,
// never the stored records.
type MemoryTicketRepo struct {
	mu      sync.RWMutex
	seq     int64
	order   []int64                 // ids in creation order
	tickets map[int64]*model.Ticket // id -> stored record
	codes   CodeSource
	now     func() time.Time
}

// NewMemoryTicketRepo constructs an empty store.  A nil clock defaults to
// time.Now.
func NewMemoryTicketRepo(codes CodeSource, now func() time.Time) *MemoryTicketRepo {
	if codes == nil {
		panic("nil code source passed to NewMemoryTicketRepo")
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryTicketRepo{
		tickets: make(map[int64]*model.Ticket),
		codes:   codes,
		now:     now,
	}
}

// Create allocates the next id, stamps the code and creation time and keeps
// every non-reserved attribute.  Payload values for id, codigo, createdAt and
// updatedAt are discarded in favour of the generated ones.
func (r *MemoryTicketRepo) Create(_ context.Context, attrs map[string]any) (*model.Ticket, error) {
	extra := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if !model.IsReserved(k) {
			extra[k] = v
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	t := &model.Ticket{
		ID:        r.seq,
		Codigo:    r.codes.Generate(),
		CreatedAt: r.now(),
		Extra:     extra,
	}
	r.tickets[t.ID] = t
	r.order = append(r.order, t.ID)
	return t.Clone(), nil
}

// List returns every ticket, newest first.
func (r *MemoryTicketRepo) List(_ context.Context) ([]*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Ticket, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.tickets[r.order[i]].Clone())
	}
	return out, nil
}

// Get returns the ticket with the given id or ErrTicketNotFound.
func (r *MemoryTicketRepo) Get(_ context.Context, id int64) (*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return t.Clone(), nil
}

// Update merges patch into the stored ticket and refreshes updatedAt.  Keys
// id, codigo and createdAt are ignored; a caller-supplied updatedAt is
// overridden by the refresh.  Returns ErrTicketNotFound for unknown ids.
func (r *MemoryTicketRepo) Update(_ context.Context, id int64, patch map[string]any) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	for k, v := range patch {
		if model.IsReserved(k) {
			continue
		}
		if t.Extra == nil {
			t.Extra = make(map[string]any)
		}
		t.Extra[k] = v
	}
	now := r.now()
	t.UpdatedAt = &now
	return t.Clone(), nil
}

// Count returns the number of stored tickets.
func (r *MemoryTicketRepo) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
