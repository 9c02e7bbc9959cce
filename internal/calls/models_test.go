package calls

import "testing"

func TestParseStatus(t *testing.T) {
	valid := []string{"PENDING", "QUEUED", "IN_PROGRESS", "COMPLETED", "MISSED", "NOT_COMPLETED", "CANCELED"}
	for _, v := range valid {
		if _, ok := ParseStatus(v); !ok {
			t.Fatalf("expected %q to parse", v)
		}
	}
	invalid := []string{"", "BOGUS", "pending", "completed", "DONE"}
	for _, v := range invalid {
		if _, ok := ParseStatus(v); ok {
			t.Fatalf("expected %q to be rejected", v)
		}
	}
}

func TestClosing_PendingIsNotATarget(t *testing.T) {
	if CallStatusPending.Closing() {
		t.Fatalf("PENDING must not be a close target")
	}
	for _, s := range []CallStatus{
		CallStatusQueued,
		CallStatusInProgress,
		CallStatusCompleted,
		CallStatusMissed,
		CallStatusNotCompleted,
		CallStatusCanceled,
	} {
		if !s.Closing() {
			t.Fatalf("expected %q to be a close target", s)
		}
	}
}
