package attendants

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory attendant repository for tests and early
// development. All methods are safe for concurrent use; each mutation runs
// under the same mutex, which gives the single-writer atomicity the
// Repository contract requires.
type MemoryRepo struct {
	mu    sync.Mutex
	byID  map[string]Attendant
	order []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]Attendant{}}
}

func (r *MemoryRepo) Create(ctx context.Context, a Attendant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.AttendantID] = a
	r.order = append(r.order, a.AttendantID)
	return nil
}

func (r *MemoryRepo) Find(ctx context.Context, attendantID string) (Attendant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[attendantID]
	if !ok {
		return Attendant{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Attendant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Attendant, 0, len(r.order))
	for _, id := range r.order {
		a := r.byID[id]
		if a.Deleted() {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) UpdateProfile(ctx context.Context, attendantID string, name *string, isOnline *bool) (Attendant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[attendantID]
	if !ok || a.Deleted() {
		return Attendant{}, ErrNotFound
	}
	if name != nil {
		a.Name = *name
	}
	if isOnline != nil {
		a.IsOnline = *isOnline
	}
	r.byID[attendantID] = a
	return a, nil
}

func (r *MemoryRepo) UpdateToken(ctx context.Context, attendantID, tokenID string, expiresAt time.Time) (Attendant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[attendantID]
	if !ok || a.Deleted() {
		return Attendant{}, ErrNotFound
	}
	tid := tokenID
	exp := expiresAt
	a.TokenID = &tid
	a.TokenExpiresAt = &exp
	r.byID[attendantID] = a
	return a, nil
}

func (r *MemoryRepo) SoftDelete(ctx context.Context, attendantID string, now time.Time) (Attendant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[attendantID]
	if !ok || a.Deleted() {
		return Attendant{}, ErrNotFound
	}
	t := now
	a.DeletedAt = &t
	r.byID[attendantID] = a
	return a, nil
}
