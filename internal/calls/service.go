package calls

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Authorizer decides whether an attendant may open a call at a given
// instant. The attendant registry implements it.
type Authorizer interface {
	Authorize(ctx context.Context, attendantID string, now time.Time) error
}

// Manager owns the call lifecycle: the gated open, the one-shot close, and
// filtered listing. Time always arrives as an argument; the manager never
// reads a wall clock.
type Manager struct {
	repo Repository
	auth Authorizer
}

func NewManager(repo Repository, auth Authorizer) *Manager {
	return &Manager{repo: repo, auth: auth}
}

// Open creates a PENDING call after a successful authorization check. An
// authorization failure propagates as-is and creates nothing.
//
// The check is a point-in-time gate: a concurrent token reissue or offline
// flip between the check and the insert is an accepted consistency window,
// not something this layer locks over.
func (m *Manager) Open(ctx context.Context, attendantID, phoneID string, now time.Time) (Call, error) {
	if attendantID == "" || phoneID == "" {
		return Call{}, ErrInvalidArgument
	}

	if err := m.auth.Authorize(ctx, attendantID, now); err != nil {
		return Call{}, err
	}

	c := Call{
		CallID:      uuid.NewString(),
		AttendantID: attendantID,
		PhoneID:     phoneID,
		StartTime:   now,
		Status:      CallStatusPending,
	}
	if err := m.repo.Create(ctx, c); err != nil {
		return Call{}, err
	}
	return c, nil
}

// Close stamps endTime and moves the call to target in one atomic write.
// PENDING is rejected as a target, as is any value outside the status set.
//
// Closing an already-closed call overwrites endTime and status; stricter
// behavior would need a confirmed contract change. The bool reports whether
// this call transitioned from open to closed, so callers tracking open-call
// counts release exactly once per call.
func (m *Manager) Close(ctx context.Context, callID, target string, now time.Time) (Call, bool, error) {
	if callID == "" {
		return Call{}, false, ErrInvalidArgument
	}
	status, ok := ParseStatus(target)
	if !ok || !status.Closing() {
		return Call{}, false, ErrInvalidStatus
	}
	return m.repo.Close(ctx, callID, status, now)
}

// ListByStatus returns the attendant's calls, optionally narrowed to one
// status. An unrecognized filter is an error, never a silent empty match.
func (m *Manager) ListByStatus(ctx context.Context, attendantID, filter string) ([]Call, error) {
	if attendantID == "" {
		return nil, ErrInvalidArgument
	}
	var status *CallStatus
	if filter != "" {
		s, ok := ParseStatus(filter)
		if !ok {
			return nil, ErrInvalidStatus
		}
		status = &s
	}
	return m.repo.ListByAttendant(ctx, attendantID, status)
}

// ListByPhone returns the call history for a phone number.
func (m *Manager) ListByPhone(ctx context.Context, phoneID string) ([]Call, error) {
	if phoneID == "" {
		return nil, ErrInvalidArgument
	}
	return m.repo.ListByPhone(ctx, phoneID)
}
