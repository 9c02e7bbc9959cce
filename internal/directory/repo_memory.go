package directory

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory directory repository for tests and early
// development.
type MemoryRepo struct {
	mu          sync.Mutex
	persons     map[string]Person
	personOrder []string
	phones      map[string]Phone
	phoneOrder  []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		persons: map[string]Person{},
		phones:  map[string]Phone{},
	}
}

func (r *MemoryRepo) CreatePerson(ctx context.Context, p Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	phones := p.Phones
	p.Phones = nil
	r.persons[p.PersonID] = p
	r.personOrder = append(r.personOrder, p.PersonID)
	for _, ph := range phones {
		r.phones[ph.PhoneID] = ph
		r.phoneOrder = append(r.phoneOrder, ph.PhoneID)
	}
	return nil
}

func (r *MemoryRepo) FindPerson(ctx context.Context, personID string) (Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.persons[personID]
	if !ok {
		return Person{}, ErrNotFound
	}
	p.Phones = r.phonesOfLocked(personID)
	return p, nil
}

func (r *MemoryRepo) ListPersons(ctx context.Context) ([]Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Person, 0, len(r.personOrder))
	for _, id := range r.personOrder {
		p := r.persons[id]
		if p.Deleted() {
			continue
		}
		p.Phones = r.phonesOfLocked(id)
		out = append(out, p)
	}
	return out, nil
}

func (r *MemoryRepo) SoftDeletePerson(ctx context.Context, personID string, now time.Time) (Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.persons[personID]
	if !ok || p.Deleted() {
		return Person{}, ErrNotFound
	}
	t := now
	p.DeletedAt = &t
	r.persons[personID] = p
	return p, nil
}

func (r *MemoryRepo) InsertPhones(ctx context.Context, phones []Phone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ph := range phones {
		if r.hasNumberLocked(ph.PersonID, ph.PhoneNumber) {
			continue
		}
		r.phones[ph.PhoneID] = ph
		r.phoneOrder = append(r.phoneOrder, ph.PhoneID)
	}
	return nil
}

// hasNumberLocked mirrors the unique (person_id, phone_number) index the
// Postgres repo relies on. Caller holds the lock.
func (r *MemoryRepo) hasNumberLocked(personID, number string) bool {
	for _, ph := range r.phones {
		if ph.PersonID == personID && ph.PhoneNumber == number {
			return true
		}
	}
	return false
}

func (r *MemoryRepo) ListPhonesByPerson(ctx context.Context, personID string) ([]Phone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phonesOfLocked(personID), nil
}

func (r *MemoryRepo) FindPhone(ctx context.Context, phoneID string) (Phone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ph, ok := r.phones[phoneID]
	if !ok {
		return Phone{}, ErrNotFound
	}
	return ph, nil
}

func (r *MemoryRepo) FindPhonesByNumber(ctx context.Context, phoneNumber string) ([]PhoneWithOwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PhoneWithOwner, 0)
	for _, id := range r.phoneOrder {
		ph, ok := r.phones[id]
		if !ok || ph.PhoneNumber != phoneNumber {
			continue
		}
		owner := r.persons[ph.PersonID]
		out = append(out, PhoneWithOwner{Phone: ph, Person: owner})
	}
	return out, nil
}

func (r *MemoryRepo) DeletePhone(ctx context.Context, phoneID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.phones[phoneID]; !ok {
		return ErrNotFound
	}
	delete(r.phones, phoneID)
	for i, id := range r.phoneOrder {
		if id == phoneID {
			r.phoneOrder = append(r.phoneOrder[:i], r.phoneOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepo) phonesOfLocked(personID string) []Phone {
	out := make([]Phone, 0)
	for _, id := range r.phoneOrder {
		ph := r.phones[id]
		if ph.PersonID == personID {
			out = append(out, ph)
		}
	}
	return out
}
