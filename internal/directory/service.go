package directory

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Service owns the person/phone directory. Per-person phone-number
// uniqueness is enforced on insert: numbers the person already has are
// skipped, only new ones are written.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type PhoneInput struct {
	Area        string `json:"area"`
	PhoneNumber string `json:"phoneNumber"`
}

type CreatePersonRequest struct {
	Name   string       `json:"name"`
	TaxID  string       `json:"taxId"`
	Phones []PhoneInput `json:"phones"`
}

func (s *Service) CreatePerson(ctx context.Context, req CreatePersonRequest, now time.Time) (Person, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Person{}, ErrInvalidArgument
	}
	taxID := strings.TrimSpace(req.TaxID)
	if !isDigits(taxID) || len(taxID) != 11 {
		return Person{}, ErrInvalidArgument
	}

	personID := uuid.NewString()
	phones := make([]Phone, 0, len(req.Phones))
	seen := map[string]bool{}
	for _, in := range req.Phones {
		ph, err := buildPhone(in, personID, now)
		if err != nil {
			return Person{}, err
		}
		if seen[ph.PhoneNumber] {
			continue
		}
		seen[ph.PhoneNumber] = true
		phones = append(phones, ph)
	}

	p := Person{
		PersonID:  personID,
		Name:      name,
		TaxID:     taxID,
		CreatedAt: now,
		Phones:    phones,
	}
	if err := s.repo.CreatePerson(ctx, p); err != nil {
		return Person{}, err
	}
	return p, nil
}

func (s *Service) ListPersons(ctx context.Context) ([]Person, error) {
	return s.repo.ListPersons(ctx)
}

// AddPhones inserts the phones the person does not already have, keyed by
// number. The returned slice contains only what was actually inserted.
func (s *Service) AddPhones(ctx context.Context, personID string, inputs []PhoneInput, now time.Time) ([]Phone, error) {
	if personID == "" {
		return nil, ErrInvalidArgument
	}
	p, err := s.repo.FindPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if p.Deleted() {
		return nil, ErrNotFound
	}

	existing, err := s.repo.ListPhonesByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	have := map[string]bool{}
	for _, ph := range existing {
		have[ph.PhoneNumber] = true
	}

	toInsert := make([]Phone, 0, len(inputs))
	for _, in := range inputs {
		ph, err := buildPhone(in, personID, now)
		if err != nil {
			return nil, err
		}
		if have[ph.PhoneNumber] {
			continue
		}
		have[ph.PhoneNumber] = true
		toInsert = append(toInsert, ph)
	}

	if len(toInsert) > 0 {
		if err := s.repo.InsertPhones(ctx, toInsert); err != nil {
			return nil, err
		}
	}
	return toInsert, nil
}

// SoftDeletePerson marks the person deleted exactly once; repeated deletes
// are errors, matching the attendant soft-delete contract.
func (s *Service) SoftDeletePerson(ctx context.Context, personID string, now time.Time) (Person, error) {
	if personID == "" {
		return Person{}, ErrInvalidArgument
	}
	p, err := s.repo.FindPerson(ctx, personID)
	if err != nil {
		return Person{}, err
	}
	if p.Deleted() {
		return Person{}, ErrAlreadyDeleted
	}

	deleted, err := s.repo.SoftDeletePerson(ctx, personID, now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Person{}, ErrAlreadyDeleted
		}
		return Person{}, err
	}
	return deleted, nil
}

func (s *Service) SearchByNumber(ctx context.Context, phoneNumber string) ([]PhoneWithOwner, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return nil, ErrInvalidArgument
	}
	matches, err := s.repo.FindPhonesByNumber(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	return matches, nil
}

func (s *Service) GetPhone(ctx context.Context, phoneID string) (Phone, error) {
	if phoneID == "" {
		return Phone{}, ErrInvalidArgument
	}
	return s.repo.FindPhone(ctx, phoneID)
}

// DeletePhone removes the phone record itself. Calls referencing the phone
// are never touched.
func (s *Service) DeletePhone(ctx context.Context, phoneID string) (Phone, error) {
	if phoneID == "" {
		return Phone{}, ErrInvalidArgument
	}
	ph, err := s.repo.FindPhone(ctx, phoneID)
	if err != nil {
		return Phone{}, err
	}
	if err := s.repo.DeletePhone(ctx, phoneID); err != nil {
		return Phone{}, err
	}
	return ph, nil
}

func buildPhone(in PhoneInput, personID string, now time.Time) (Phone, error) {
	area := strings.ToUpper(strings.TrimSpace(in.Area))
	if len(area) != 2 {
		return Phone{}, ErrInvalidArgument
	}
	number := strings.TrimSpace(in.PhoneNumber)
	if !isDigits(number) || len(number) != 9 {
		return Phone{}, ErrInvalidArgument
	}
	return Phone{
		PhoneID:     uuid.NewString(),
		Area:        area,
		PhoneNumber: number,
		PersonID:    personID,
		CreatedAt:   now,
	}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
