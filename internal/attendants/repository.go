package attendants

import (
	"context"
	"time"
)

// Repository is the persistence contract for attendants.
//
// Implementations must keep each mutation a single atomic write. In
// particular UpdateToken writes token_id and token_expires_at together; a
// concurrent reader must never observe one without the other.
//
// Find returns soft-deleted rows as-is (DeletedAt set) so the service can
// distinguish "absent" from "already deleted"; every other method treats a
// soft-deleted row as missing.
type Repository interface {
	Create(ctx context.Context, a Attendant) error
	Find(ctx context.Context, attendantID string) (Attendant, error)
	List(ctx context.Context) ([]Attendant, error)

	// UpdateProfile applies allow-listed fields only. Nil pointers leave
	// the current value untouched.
	UpdateProfile(ctx context.Context, attendantID string, name *string, isOnline *bool) (Attendant, error)

	// UpdateToken overwrites both token fields in one write.
	UpdateToken(ctx context.Context, attendantID, tokenID string, expiresAt time.Time) (Attendant, error)

	// SoftDelete stamps deleted_at on a live row; it fails with ErrNotFound
	// when the row is absent or already deleted.
	SoftDelete(ctx context.Context, attendantID string, now time.Time) (Attendant, error)
}
