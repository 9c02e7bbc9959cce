package attendants

import "time"

// Attendant is an operator who can be online/offline and handle calls
// under a time-boxed session token.
//
// Invariants:
// - TokenID and TokenExpiresAt are set and cleared together; one is never
//   present without the other.
// - Token fields are owned by token issuance; the general patch path must
//   never write them.
// - A non-nil DeletedAt means the record is logically removed and must be
//   treated as absent by every operation.
type Attendant struct {
	AttendantID    string     `json:"attendantId" db:"attendant_id"`
	Name           string     `json:"name" db:"name"`
	IsOnline       bool       `json:"isOnline" db:"is_online"`
	TokenID        *string    `json:"tokenId" db:"token_id"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt" db:"token_expires_at"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// Deleted reports whether the record is soft-deleted.
func (a Attendant) Deleted() bool { return a.DeletedAt != nil }
