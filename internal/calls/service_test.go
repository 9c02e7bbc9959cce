package calls

import (
	"context"
	"errors"
	"testing"
	"time"

	"callcenter-api/internal/attendants"
)

func testClock() time.Time {
	return time.Unix(1700000000, 0).UTC()
}

// registry builds an attendant service backed by memory and returns a ready
// attendant id in the requested state.
func registry(t *testing.T, online bool, withToken bool) (*attendants.Service, string) {
	t.Helper()
	issuer, err := attendants.NewIssuer("test-secret", 24*time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	svc := attendants.NewService(attendants.NewMemoryRepo(), issuer)

	a, err := svc.Create(context.Background(), attendants.CreateRequest{Name: "Maria", IsOnline: online}, testClock())
	if err != nil {
		t.Fatalf("create attendant: %v", err)
	}
	if withToken {
		if _, err := svc.IssueToken(context.Background(), a.AttendantID, testClock()); err != nil {
			t.Fatalf("issue token: %v", err)
		}
	}
	return svc, a.AttendantID
}

func TestOpen_AuthorizedCreatesPendingCall(t *testing.T) {
	reg, attendantID := registry(t, true, true)
	repo := NewMemoryRepo()
	m := NewManager(repo, reg)

	now := testClock().Add(time.Hour)
	c, err := m.Open(context.Background(), attendantID, "phone-1", now)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if c.Status != CallStatusPending {
		t.Fatalf("expected PENDING, got %q", c.Status)
	}
	if !c.StartTime.Equal(now) {
		t.Fatalf("expected startTime %s, got %s", now, c.StartTime)
	}
	if c.EndTime != nil {
		t.Fatalf("expected nil endTime on open")
	}
}

func TestOpen_NotOnlineCreatesNothing(t *testing.T) {
	reg, attendantID := registry(t, false, true)
	repo := NewMemoryRepo()
	m := NewManager(repo, reg)

	_, err := m.Open(context.Background(), attendantID, "phone-1", testClock())
	if !errors.Is(err, attendants.ErrNotOnline) {
		t.Fatalf("expected ErrNotOnline, got %v", err)
	}
	got, _ := repo.ListByAttendant(context.Background(), attendantID, nil)
	if len(got) != 0 {
		t.Fatalf("expected no call records, got %d", len(got))
	}
}

func TestOpen_ExpiredTokenCreatesNothing(t *testing.T) {
	reg, attendantID := registry(t, true, true)
	repo := NewMemoryRepo()
	m := NewManager(repo, reg)

	_, err := m.Open(context.Background(), attendantID, "phone-1", testClock().Add(48*time.Hour))
	if !errors.Is(err, attendants.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	got, _ := repo.ListByAttendant(context.Background(), attendantID, nil)
	if len(got) != 0 {
		t.Fatalf("expected no call records, got %d", len(got))
	}
}

func TestOpen_UnknownAttendant(t *testing.T) {
	reg, _ := registry(t, true, true)
	m := NewManager(NewMemoryRepo(), reg)

	_, err := m.Open(context.Background(), "missing", "phone-1", testClock())
	if !errors.Is(err, attendants.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClose_RoundTrip(t *testing.T) {
	reg, attendantID := registry(t, true, true)
	repo := NewMemoryRepo()
	m := NewManager(repo, reg)

	openAt := testClock().Add(time.Hour)
	c, err := m.Open(context.Background(), attendantID, "phone-1", openAt)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	closeAt := openAt.Add(10 * time.Minute)
	closed, wasOpen, err := m.Close(context.Background(), c.CallID, "COMPLETED", closeAt)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !wasOpen {
		t.Fatalf("first close must report the open-to-closed transition")
	}
	if closed.Status != CallStatusCompleted {
		t.Fatalf("expected COMPLETED, got %q", closed.Status)
	}
	if closed.EndTime == nil || !closed.EndTime.Equal(closeAt) {
		t.Fatalf("expected endTime %s, got %v", closeAt, closed.EndTime)
	}
	if closed.StartTime.After(*closed.EndTime) {
		t.Fatalf("startTime must not exceed endTime")
	}
}

func TestClose_InvalidStatusLeavesCallUnmodified(t *testing.T) {
	reg, attendantID := registry(t, true, true)
	repo := NewMemoryRepo()
	m := NewManager(repo, reg)

	c, err := m.Open(context.Background(), attendantID, "phone-1", testClock())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, _, err := m.Close(context.Background(), c.CallID, "BOGUS", testClock()); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	got, err := repo.Find(context.Background(), c.CallID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != CallStatusPending || got.EndTime != nil {
		t.Fatalf("call must be unmodified after invalid close, got %+v", got)
	}
}

func TestClose_PendingIsRejectedAsTarget(t *testing.T) {
	reg, attendantID := registry(t, true, true)
	m := NewManager(NewMemoryRepo(), reg)

	c, err := m.Open(context.Background(), attendantID, "phone-1", testClock())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, _, err := m.Close(context.Background(), c.CallID, "PENDING", testClock()); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for PENDING target, got %v", err)
	}
}

func TestClose_MissingCall(t *testing.T) {
	reg, _ := registry(t, true, true)
	m := NewManager(NewMemoryRepo(), reg)

	if _, _, err := m.Close(context.Background(), "missing", "COMPLETED", testClock()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClose_DoubleCloseOverwrites(t *testing.T) {
	reg, attendantID := registry(t, true, true)
	m := NewManager(NewMemoryRepo(), reg)

	c, err := m.Open(context.Background(), attendantID, "phone-1", testClock())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	firstAt := testClock().Add(5 * time.Minute)
	_, wasOpen, err := m.Close(context.Background(), c.CallID, "COMPLETED", firstAt)
	if err != nil {
		t.Fatalf("first close: %v", err)
	}
	if !wasOpen {
		t.Fatalf("first close must report the transition")
	}
	secondAt := testClock().Add(10 * time.Minute)
	got, wasOpen, err := m.Close(context.Background(), c.CallID, "CANCELED", secondAt)
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if wasOpen {
		t.Fatalf("repeated close must not report a transition")
	}
	if got.Status != CallStatusCanceled || !got.EndTime.Equal(secondAt) {
		t.Fatalf("expected second close to overwrite, got %+v", got)
	}
}

func TestListByStatus_FilterAndRejection(t *testing.T) {
	reg, attendantID := registry(t, true, true)
	repo := NewMemoryRepo()
	m := NewManager(repo, reg)

	now := testClock().Add(time.Hour)
	first, _ := m.Open(context.Background(), attendantID, "phone-1", now)
	if _, err := m.Open(context.Background(), attendantID, "phone-2", now); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, _, err := m.Close(context.Background(), first.CallID, "COMPLETED", now.Add(time.Minute)); err != nil {
		t.Fatalf("close: %v", err)
	}

	all, err := m.ListByStatus(context.Background(), attendantID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(all))
	}

	completed, err := m.ListByStatus(context.Background(), attendantID, "COMPLETED")
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(completed) != 1 || completed[0].CallID != first.CallID {
		t.Fatalf("unexpected filtered result: %+v", completed)
	}

	if _, err := m.ListByStatus(context.Background(), attendantID, "BOGUS"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for unknown filter, got %v", err)
	}
}

func TestReissueInvalidatesNothingForStoredStateAuthorization(t *testing.T) {
	// Authorization is keyed by attendant identity plus current time, not by
	// a caller-supplied token: opening still works right after a reissue.
	reg, attendantID := registry(t, true, true)
	m := NewManager(NewMemoryRepo(), reg)

	if _, err := reg.IssueToken(context.Background(), attendantID, testClock().Add(time.Minute)); err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if _, err := m.Open(context.Background(), attendantID, "phone-1", testClock().Add(2*time.Minute)); err != nil {
		t.Fatalf("expected open to succeed after reissue, got %v", err)
	}
}
