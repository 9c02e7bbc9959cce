package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"callcenter-api/internal/attendants"
	"callcenter-api/internal/authgate"
	"callcenter-api/internal/calls"
	"callcenter-api/internal/directory"

	"github.com/gin-gonic/gin"
)

type testEnv struct {
	router     *gin.Engine
	attendants *attendants.Service
	calls      *calls.Manager
}

func newTestEnv(t *testing.T) testEnv {
	return newTestEnvWithCap(t, nil)
}

func newTestEnvWithCap(t *testing.T, limiter CallLimiter) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := attendants.NewIssuer("test-secret", 24*time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	attSvc := attendants.NewService(attendants.NewMemoryRepo(), issuer)
	callMgr := calls.NewManager(calls.NewMemoryRepo(), attSvc)
	dirSvc := directory.NewService(directory.NewMemoryRepo())

	h := Handlers{Attendants: attSvc, Calls: callMgr, Directory: dirSvc, Cap: limiter}
	gate := authgate.RequireAuthEmail([]string{"ops@example.com"})

	r := gin.New()
	r.POST("/persons", h.CreatePerson)
	r.GET("/persons", gate, h.ListPersons)
	r.POST("/persons/:personId/phones", h.AddPhones)
	r.DELETE("/persons/:personId", h.DeletePerson)
	r.GET("/phones/search", gate, h.SearchPhone)
	r.DELETE("/phones/:phoneId", h.DeletePhone)
	r.GET("/phones/:phoneId/calls", h.PhoneCalls)
	r.POST("/attendants", h.CreateAttendant)
	r.GET("/attendants", gate, h.ListAttendants)
	r.GET("/attendants/:attendantId", h.GetAttendant)
	r.PATCH("/attendants/:attendantId", h.PatchAttendant)
	r.DELETE("/attendants/:attendantId", h.DeleteAttendant)
	r.POST("/attendants/:attendantId/token", h.IssueToken)
	r.GET("/attendants/:attendantId/calls", h.AttendantCalls)
	r.POST("/calls/open", h.OpenCall)
	r.POST("/calls/:callId/close", h.CloseCall)

	return testEnv{router: r, attendants: attSvc, calls: callMgr}
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestCallLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)

	// Attendant starts offline.
	w := env.do(t, http.MethodPost, "/attendants", gin.H{"name": "Maria", "isOnline": false})
	if w.Code != http.StatusCreated {
		t.Fatalf("create attendant: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	created := decode[map[string]any](t, w)
	attendantID := created["attendantId"].(string)

	// Opening a call while offline fails with no call created.
	w = env.do(t, http.MethodPost, "/calls/open", gin.H{"attendantId": attendantID, "phoneId": "phone-1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("open offline: expected 400, got %d (%s)", w.Code, w.Body.String())
	}

	// Flip online via patch.
	w = env.do(t, http.MethodPatch, "/attendants/"+attendantID, gin.H{"isOnline": true})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	// Still no token: open keeps failing.
	w = env.do(t, http.MethodPost, "/calls/open", gin.H{"attendantId": attendantID, "phoneId": "phone-1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("open without token: expected 400, got %d (%s)", w.Code, w.Body.String())
	}

	// Issue a token.
	w = env.do(t, http.MethodPost, "/attendants/"+attendantID+"/token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("issue token: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	sess := decode[map[string]any](t, w)
	if sess["attendantId"] != attendantID || sess["tokenId"] == "" || sess["tokenExpiresAt"] == "" {
		t.Fatalf("unexpected token response: %v", sess)
	}

	// Open now succeeds with a PENDING call.
	w = env.do(t, http.MethodPost, "/calls/open", gin.H{"attendantId": attendantID, "phoneId": "phone-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("open: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	call := decode[map[string]any](t, w)
	if call["status"] != "PENDING" {
		t.Fatalf("expected PENDING call, got %v", call["status"])
	}
	if call["endTime"] != nil {
		t.Fatalf("expected null endTime, got %v", call["endTime"])
	}
	callID := call["callId"].(string)

	// Close with COMPLETED.
	w = env.do(t, http.MethodPost, "/calls/"+callID+"/close", gin.H{"status": "COMPLETED"})
	if w.Code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	closed := decode[map[string]any](t, w)
	if closed["status"] != "COMPLETED" || closed["endTime"] == nil {
		t.Fatalf("unexpected closed call: %v", closed)
	}

	// Closing with an unknown status is rejected and leaves the call alone.
	w = env.do(t, http.MethodPost, "/calls/"+callID+"/close", gin.H{"status": "BOGUS"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bogus close: expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	listW := env.do(t, http.MethodGet, "/attendants/"+attendantID+"/calls?status=COMPLETED", nil)
	if listW.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", listW.Code)
	}
	listed := decode[[]map[string]any](t, listW)
	if len(listed) != 1 || listed[0]["status"] != "COMPLETED" {
		t.Fatalf("call must remain COMPLETED after rejected close: %v", listed)
	}
}

func TestOpenCall_UnknownAttendantIs404(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/calls/open", gin.H{"attendantId": "missing", "phoneId": "phone-1"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestPatchAttendant_RejectsTokenFields(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/attendants", gin.H{"name": "Maria"})
	attendantID := decode[map[string]any](t, w)["attendantId"].(string)

	w = env.do(t, http.MethodPatch, "/attendants/"+attendantID, gin.H{"tokenId": "forged"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for tokenId patch, got %d", w.Code)
	}
	w = env.do(t, http.MethodPatch, "/attendants/"+attendantID, gin.H{"tokenExpiresAt": "2030-01-01T00:00:00Z"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for tokenExpiresAt patch, got %d", w.Code)
	}
	w = env.do(t, http.MethodPatch, "/attendants/"+attendantID, gin.H{"attendantId": "other-id"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for attendantId change, got %d", w.Code)
	}

	// The attendant is untouched by the rejected patches.
	w = env.do(t, http.MethodGet, "/attendants/"+attendantID, nil)
	got := decode[map[string]any](t, w)
	if got["tokenId"] != nil {
		t.Fatalf("token fields must be untouched, got %v", got["tokenId"])
	}
}

func TestAttendantCalls_UnknownStatusIs400(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/attendants", gin.H{"name": "Maria"})
	attendantID := decode[map[string]any](t, w)["attendantId"].(string)

	w = env.do(t, http.MethodGet, "/attendants/"+attendantID+"/calls?status=BOGUS", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestDeleteAttendant_TwiceIs400(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/attendants", gin.H{"name": "Maria"})
	attendantID := decode[map[string]any](t, w)["attendantId"].(string)

	w = env.do(t, http.MethodDelete, "/attendants/"+attendantID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("first delete: expected 200, got %d", w.Code)
	}
	w = env.do(t, http.MethodDelete, "/attendants/"+attendantID, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second delete: expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	// Deleted attendants are absent for reads.
	w = env.do(t, http.MethodGet, "/attendants/"+attendantID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted attendant, got %d", w.Code)
	}
}

func TestListAttendants_GatedAndEmptyIs404(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/attendants", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/attendants", nil)
	req.Header.Set("x-auth-email", "ops@example.com")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for empty registry, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestPersonsAndPhonesFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/persons", gin.H{
		"name":  "Joana",
		"taxId": "12345678901",
		"phones": []gin.H{
			{"area": "sp", "phoneNumber": "987654321"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create person: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	person := decode[map[string]any](t, w)
	personID := person["personId"].(string)

	// Duplicate number skipped, new number inserted.
	w = env.do(t, http.MethodPost, "/persons/"+personID+"/phones", gin.H{
		"phones": []gin.H{
			{"area": "SP", "phoneNumber": "987654321"},
			{"area": "RJ", "phoneNumber": "912345678"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add phones: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	added := decode[map[string]any](t, w)
	inserted := added["inserted"].([]any)
	if len(inserted) != 1 {
		t.Fatalf("expected 1 inserted phone, got %d", len(inserted))
	}

	// Search requires the gate.
	req := httptest.NewRequest(http.MethodGet, "/phones/search?phoneNumber=912345678", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without gate header, got %d", rec.Code)
	}
	req = httptest.NewRequest(http.MethodGet, "/phones/search?phoneNumber=912345678", nil)
	req.Header.Set("x-auth-email", "ops@example.com")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	// Delete person twice: second is a 400.
	w = env.do(t, http.MethodDelete, "/persons/"+personID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete person: expected 200, got %d", w.Code)
	}
	w = env.do(t, http.MethodDelete, "/persons/"+personID, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second delete: expected 400, got %d", w.Code)
	}
}

// countingLimiter is an in-process CallLimiter for exercising cap
// accounting without Redis.
type countingLimiter struct {
	mu    sync.Mutex
	limit int
	open  map[string]int
}

func (l *countingLimiter) acquire(ctx context.Context, attendantID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open[attendantID] >= l.limit {
		return false, nil
	}
	l.open[attendantID]++
	return true, nil
}

func (l *countingLimiter) release(ctx context.Context, attendantID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open[attendantID]--
	return nil
}

func TestCloseCall_RepeatedCloseReleasesCapSlotOnce(t *testing.T) {
	lim := &countingLimiter{limit: 2, open: map[string]int{}}
	env := newTestEnvWithCap(t, lim)

	w := env.do(t, http.MethodPost, "/attendants", gin.H{"name": "Maria", "isOnline": true})
	attendantID := decode[map[string]any](t, w)["attendantId"].(string)
	if w := env.do(t, http.MethodPost, "/attendants/"+attendantID+"/token", nil); w.Code != http.StatusOK {
		t.Fatalf("issue token: %d", w.Code)
	}

	open := func() *httptest.ResponseRecorder {
		return env.do(t, http.MethodPost, "/calls/open", gin.H{"attendantId": attendantID, "phoneId": "phone-1"})
	}

	w = open()
	if w.Code != http.StatusCreated {
		t.Fatalf("open a: expected 201, got %d", w.Code)
	}
	callA := decode[map[string]any](t, w)["callId"].(string)
	if w = open(); w.Code != http.StatusCreated {
		t.Fatalf("open b: expected 201, got %d", w.Code)
	}

	// Both slots taken.
	if w = open(); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 at the cap, got %d", w.Code)
	}

	if w = env.do(t, http.MethodPost, "/calls/"+callA+"/close", gin.H{"status": "COMPLETED"}); w.Code != http.StatusOK {
		t.Fatalf("close a: expected 200, got %d", w.Code)
	}
	// Closing the same call again succeeds but must not hand back the slot
	// the still-open call holds.
	if w = env.do(t, http.MethodPost, "/calls/"+callA+"/close", gin.H{"status": "CANCELED"}); w.Code != http.StatusOK {
		t.Fatalf("repeat close a: expected 200, got %d", w.Code)
	}

	if w = open(); w.Code != http.StatusCreated {
		t.Fatalf("expected the single freed slot to admit one open, got %d", w.Code)
	}
	if w = open(); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the freed slot was retaken, got %d", w.Code)
	}
	if got := lim.open[attendantID]; got != 2 {
		t.Fatalf("expected 2 held slots, got %d", got)
	}
}

func TestPhoneCallsHistory(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/persons", gin.H{
		"name":  "Joana",
		"taxId": "12345678901",
		"phones": []gin.H{
			{"area": "SP", "phoneNumber": "987654321"},
		},
	})
	person := decode[map[string]any](t, w)
	phoneID := person["phones"].([]any)[0].(map[string]any)["phoneId"].(string)

	w = env.do(t, http.MethodPost, "/attendants", gin.H{"name": "Maria", "isOnline": true})
	attendantID := decode[map[string]any](t, w)["attendantId"].(string)
	if w := env.do(t, http.MethodPost, "/attendants/"+attendantID+"/token", nil); w.Code != http.StatusOK {
		t.Fatalf("issue token: %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/calls/open", gin.H{"attendantId": attendantID, "phoneId": phoneID}); w.Code != http.StatusCreated {
		t.Fatalf("open: %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/phones/"+phoneID+"/calls", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("phone calls: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	out := decode[map[string]any](t, w)
	if len(out["calls"].([]any)) != 1 {
		t.Fatalf("expected 1 call in history, got %v", out["calls"])
	}
}
