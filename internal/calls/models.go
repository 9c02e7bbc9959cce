package calls

import "time"

// Call links an attendant and a phone number and moves from PENDING to
// exactly one closing status.
//
// Lifecycle invariant: a Call is created only after a successful attendant
// authorization check; it is mutated exactly once by Close, which sets
// EndTime and Status together; it is never hard-deleted.
type Call struct {
	CallID      string `json:"callId" db:"call_id"`
	AttendantID string `json:"attendantId" db:"attendant_id"`
	PhoneID     string `json:"phoneId" db:"phone_id"`

	StartTime time.Time  `json:"startTime" db:"start_time"`
	EndTime   *time.Time `json:"endTime" db:"end_time"`

	Status CallStatus `json:"status" db:"status"`
}

type CallStatus string

const (
	CallStatusPending      CallStatus = "PENDING"
	CallStatusQueued       CallStatus = "QUEUED"
	CallStatusInProgress   CallStatus = "IN_PROGRESS"
	CallStatusCompleted    CallStatus = "COMPLETED"
	CallStatusMissed       CallStatus = "MISSED"
	CallStatusNotCompleted CallStatus = "NOT_COMPLETED"
	CallStatusCanceled     CallStatus = "CANCELED"
)

// ParseStatus maps a wire value onto the defined status set.
func ParseStatus(s string) (CallStatus, bool) {
	switch CallStatus(s) {
	case CallStatusPending,
		CallStatusQueued,
		CallStatusInProgress,
		CallStatusCompleted,
		CallStatusMissed,
		CallStatusNotCompleted,
		CallStatusCanceled:
		return CallStatus(s), true
	default:
		return "", false
	}
}

// Closing reports whether a status is a legal target for Close. PENDING is
// the sole initial state and can never be closed back into.
func (s CallStatus) Closing() bool {
	return s != CallStatusPending
}
