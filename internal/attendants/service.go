package attendants

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service owns the attendant registry: creation, allow-listed updates, soft
// delete, session-token issuance, and the authorization check consulted
// before a call is opened.
//
// Every operation that compares or stamps time takes now as an explicit
// argument. The service never reads a wall clock; that keeps expiry logic
// deterministic and the caller in charge of time.
type Service struct {
	repo   Repository
	issuer *Issuer
}

func NewService(repo Repository, issuer *Issuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

type CreateRequest struct {
	Name     string `json:"name"`
	IsOnline bool   `json:"isOnline"`
}

// PatchRequest carries the only fields the general update path may touch.
// Token fields and the ID are rejected before this struct is ever built.
type PatchRequest struct {
	Name     *string `json:"name,omitempty"`
	IsOnline *bool   `json:"isOnline,omitempty"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest, now time.Time) (Attendant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Attendant{}, ErrInvalidArgument
	}

	a := Attendant{
		AttendantID: uuid.NewString(),
		Name:        name,
		IsOnline:    req.IsOnline,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Attendant{}, err
	}
	return a, nil
}

// Get returns a live attendant; soft-deleted records are absent.
func (s *Service) Get(ctx context.Context, attendantID string) (Attendant, error) {
	if attendantID == "" {
		return Attendant{}, ErrInvalidArgument
	}
	a, err := s.repo.Find(ctx, attendantID)
	if err != nil {
		return Attendant{}, err
	}
	if a.Deleted() {
		return Attendant{}, ErrNotFound
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]Attendant, error) {
	return s.repo.List(ctx)
}

// Patch updates name and/or isOnline. Validation happens before any write:
// a request carrying a disallowed field never reaches the repository.
func (s *Service) Patch(ctx context.Context, attendantID string, req PatchRequest) (Attendant, error) {
	if attendantID == "" {
		return Attendant{}, ErrInvalidArgument
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return Attendant{}, ErrInvalidArgument
		}
		req.Name = &trimmed
	}
	if req.Name == nil && req.IsOnline == nil {
		return Attendant{}, ErrInvalidArgument
	}
	return s.repo.UpdateProfile(ctx, attendantID, req.Name, req.IsOnline)
}

// IssuedSession is what token issuance hands back to the caller.
type IssuedSession struct {
	AttendantID    string    `json:"attendantId"`
	TokenID        string    `json:"tokenId"`
	TokenExpiresAt time.Time `json:"tokenExpiresAt"`
}

// IssueToken mints a fresh session token and overwrites the stored token
// fields in one atomic write. Any previously issued token stops authorizing
// immediately: checks always compare against the stored value, which has
// just changed.
func (s *Service) IssueToken(ctx context.Context, attendantID string, now time.Time) (IssuedSession, error) {
	if attendantID == "" {
		return IssuedSession{}, ErrInvalidArgument
	}

	tok, err := s.issuer.Mint(attendantID, now)
	if err != nil {
		return IssuedSession{}, err
	}

	a, err := s.repo.UpdateToken(ctx, attendantID, tok.TokenID, tok.ExpiresAt)
	if err != nil {
		return IssuedSession{}, err
	}
	return IssuedSession{
		AttendantID:    a.AttendantID,
		TokenID:        tok.TokenID,
		TokenExpiresAt: tok.ExpiresAt,
	}, nil
}

// Authorize decides whether an attendant may open a call at instant now.
// It is a pure read: no mutation, safe for any number of concurrent callers.
//
// Check order: existence (soft-deleted counts as absent), online flag, then
// token validity. A nil expiry means no token was ever issued and fails the
// same way an expired one does. The stored token must also still verify
// under the current signing secret, so rotating the secret revokes every
// outstanding session at once.
func (s *Service) Authorize(ctx context.Context, attendantID string, now time.Time) error {
	a, err := s.repo.Find(ctx, attendantID)
	if err != nil {
		return err
	}
	if a.Deleted() {
		return ErrNotFound
	}
	if !a.IsOnline {
		return ErrNotOnline
	}
	if a.TokenID == nil || a.TokenExpiresAt == nil || !a.TokenExpiresAt.After(now) {
		return ErrTokenExpired
	}
	if subject, err := s.issuer.Verify(*a.TokenID, now); err != nil || subject != a.AttendantID {
		return ErrTokenExpired
	}
	return nil
}

// SoftDelete marks the attendant deleted exactly once. Deleting an already
// deleted attendant is an error, not a no-op.
func (s *Service) SoftDelete(ctx context.Context, attendantID string, now time.Time) (Attendant, error) {
	if attendantID == "" {
		return Attendant{}, ErrInvalidArgument
	}
	a, err := s.repo.Find(ctx, attendantID)
	if err != nil {
		return Attendant{}, err
	}
	if a.Deleted() {
		return Attendant{}, ErrAlreadyDeleted
	}

	deleted, err := s.repo.SoftDelete(ctx, attendantID, now)
	if err != nil {
		// A concurrent delete can win between the read and the write; the
		// guarded update reports that as not-found, which for this caller
		// means the record was already deleted.
		if errors.Is(err, ErrNotFound) {
			return Attendant{}, ErrAlreadyDeleted
		}
		return Attendant{}, err
	}
	return deleted, nil
}
