package calls

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory call repository for tests and early development.
type MemoryRepo struct {
	mu    sync.Mutex
	byID  map[string]Call
	order []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]Call{}}
}

func (r *MemoryRepo) Create(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.CallID] = c
	r.order = append(r.order, c.CallID)
	return nil
}

func (r *MemoryRepo) Find(ctx context.Context, callID string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[callID]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) Close(ctx context.Context, callID string, status CallStatus, endTime time.Time) (Call, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[callID]
	if !ok {
		return Call{}, false, ErrNotFound
	}
	wasOpen := c.EndTime == nil
	t := endTime
	c.EndTime = &t
	c.Status = status
	r.byID[callID] = c
	return c, wasOpen, nil
}

func (r *MemoryRepo) ListByAttendant(ctx context.Context, attendantID string, status *CallStatus) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, 0)
	for _, id := range r.order {
		c := r.byID[id]
		if c.AttendantID != attendantID {
			continue
		}
		if status != nil && c.Status != *status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) ListByPhone(ctx context.Context, phoneID string) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, 0)
	for _, id := range r.order {
		c := r.byID[id]
		if c.PhoneID == phoneID {
			out = append(out, c)
		}
	}
	return out, nil
}
