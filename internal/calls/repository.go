package calls

import (
	"context"
	"time"
)

// Repository is the persistence contract for calls.
//
// Close must land EndTime and Status in a single atomic write; a reader must
// never observe a closing status with a nil end time or the reverse.
type Repository interface {
	Create(ctx context.Context, c Call) error
	Find(ctx context.Context, callID string) (Call, error)

	// Close stamps endTime and status together on an existing call. The
	// bool reports whether this write transitioned the call from open to
	// closed; a repeated close overwrites but reports false.
	Close(ctx context.Context, callID string, status CallStatus, endTime time.Time) (Call, bool, error)

	// ListByAttendant returns the attendant's calls, optionally narrowed to
	// one status. A nil filter matches everything.
	ListByAttendant(ctx context.Context, attendantID string, status *CallStatus) ([]Call, error)

	ListByPhone(ctx context.Context, phoneID string) ([]Call, error)
}
