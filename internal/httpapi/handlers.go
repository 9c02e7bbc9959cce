package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"callcenter-api/internal/attendants"
	"callcenter-api/internal/calls"
	"callcenter-api/internal/directory"
	"callcenter-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
// The handlers supply wall-clock time; services never read a clock.
type Handlers struct {
	Attendants *attendants.Service
	Calls      *calls.Manager
	Directory  *directory.Service
	Cap        CallLimiter
}

func (h Handlers) capAcquire(ctx context.Context, attendantID string) (bool, error) {
	if h.Cap == nil {
		return true, nil
	}
	return h.Cap.acquire(ctx, attendantID)
}

func (h Handlers) capRelease(ctx context.Context, attendantID string) error {
	if h.Cap == nil {
		return nil
	}
	return h.Cap.release(ctx, attendantID)
}

func now() time.Time { return time.Now().UTC() }

// --- Persons ---

func (h Handlers) CreatePerson(c *gin.Context) {
	var req directory.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	p, err := h.Directory.CreatePerson(c.Request.Context(), req, now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h Handlers) ListPersons(c *gin.Context) {
	persons, err := h.Directory.ListPersons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, persons)
}

type addPhonesRequest struct {
	Phones []directory.PhoneInput `json:"phones"`
}

func (h Handlers) AddPhones(c *gin.Context) {
	var req addPhonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	if len(req.Phones) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "phones required"})
		return
	}
	inserted, err := h.Directory.AddPhones(c.Request.Context(), c.Param("personId"), req.Phones, now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Phones added successfully.",
		"inserted": inserted,
	})
}

func (h Handlers) DeletePerson(c *gin.Context) {
	p, err := h.Directory.SoftDeletePerson(c.Request.Context(), c.Param("personId"), now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Register logically deleted.",
		"deletedPerson": p,
	})
}

// --- Phones ---

func (h Handlers) SearchPhone(c *gin.Context) {
	number := strings.TrimSpace(c.Query("phoneNumber"))
	if number == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Phone number is required."})
		return
	}
	matches, err := h.Directory.SearchByNumber(c.Request.Context(), number)
	if err != nil {
		if isDirectoryNotFound(err) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "No phone number found."})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (h Handlers) DeletePhone(c *gin.Context) {
	ph, err := h.Directory.DeletePhone(c.Request.Context(), c.Param("phoneId"))
	if err != nil {
		if isDirectoryNotFound(err) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Phone not found."})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Phone number deleted successfully.",
		"deletedPhone": ph,
	})
}

func (h Handlers) PhoneCalls(c *gin.Context) {
	phoneID := c.Param("phoneId")
	ph, err := h.Directory.GetPhone(c.Request.Context(), phoneID)
	if err != nil {
		if isDirectoryNotFound(err) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Phone not found."})
			return
		}
		respondError(c, err)
		return
	}
	history, err := h.Calls.ListByPhone(c.Request.Context(), phoneID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"phoneId":     ph.PhoneID,
		"area":        ph.Area,
		"phoneNumber": ph.PhoneNumber,
		"calls":       history,
	})
}

// --- Attendants ---

func (h Handlers) CreateAttendant(c *gin.Context) {
	var req attendants.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	a, err := h.Attendants.Create(c.Request.Context(), req, now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h Handlers) ListAttendants(c *gin.Context) {
	list, err := h.Attendants.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if len(list) == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "No attendants found"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) GetAttendant(c *gin.Context) {
	attendantID := c.Param("attendantId")
	a, err := h.Attendants.Get(c.Request.Context(), attendantID)
	if err != nil {
		respondError(c, err)
		return
	}
	history, err := h.Calls.ListByStatus(c.Request.Context(), attendantID, "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"attendantId":    a.AttendantID,
		"name":           a.Name,
		"isOnline":       a.IsOnline,
		"tokenId":        a.TokenID,
		"tokenExpiresAt": a.TokenExpiresAt,
		"calls":          history,
	})
}

// patchAttendantRequest accepts the raw patch payload so disallowed fields
// can be rejected before the service ever sees them.
type patchAttendantRequest struct {
	AttendantID    *string `json:"attendantId"`
	Name           *string `json:"name"`
	IsOnline       *bool   `json:"isOnline"`
	TokenID        *string `json:"tokenId"`
	TokenExpiresAt *string `json:"tokenExpiresAt"`
}

func (h Handlers) PatchAttendant(c *gin.Context) {
	attendantID := c.Param("attendantId")

	var req patchAttendantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}

	// Validate-then-write: no disallowed field reaches storage.
	if req.AttendantID != nil && *req.AttendantID != attendantID {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Attendant ID cannot be changed."})
		return
	}
	if req.TokenID != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Token ID cannot be changed."})
		return
	}
	if req.TokenExpiresAt != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Token expiration date cannot be changed."})
		return
	}

	a, err := h.Attendants.Patch(c.Request.Context(), attendantID, attendants.PatchRequest{
		Name:     req.Name,
		IsOnline: req.IsOnline,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) DeleteAttendant(c *gin.Context) {
	a, err := h.Attendants.SoftDelete(c.Request.Context(), c.Param("attendantId"), now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "Register logically deleted.",
		"deletedAttendant": a,
	})
}

func (h Handlers) IssueToken(c *gin.Context) {
	sess, err := h.Attendants.IssueToken(c.Request.Context(), c.Param("attendantId"), now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h Handlers) AttendantCalls(c *gin.Context) {
	attendantID := c.Param("attendantId")
	if _, err := h.Attendants.Get(c.Request.Context(), attendantID); err != nil {
		respondError(c, err)
		return
	}
	list, err := h.Calls.ListByStatus(c.Request.Context(), attendantID, strings.TrimSpace(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// --- Calls ---

type openCallRequest struct {
	AttendantID string `json:"attendantId"`
	PhoneID     string `json:"phoneId"`
}

func (h Handlers) OpenCall(c *gin.Context) {
	var req openCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	req.AttendantID = strings.TrimSpace(req.AttendantID)
	req.PhoneID = strings.TrimSpace(req.PhoneID)
	if req.AttendantID == "" || req.PhoneID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "attendantId and phoneId are required"})
		return
	}

	ctx := c.Request.Context()
	ok, err := h.capAcquire(ctx, req.AttendantID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Attendant has too many open calls"})
		return
	}

	call, err := h.Calls.Open(ctx, req.AttendantID, req.PhoneID, now())
	if err != nil {
		if relErr := h.capRelease(ctx, req.AttendantID); relErr != nil {
			logger.FromGin(c).Error("call cap release failed", "err", relErr)
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

type closeCallRequest struct {
	Status string `json:"status"`
}

func (h Handlers) CloseCall(c *gin.Context) {
	var req closeCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}

	call, wasOpen, err := h.Calls.Close(c.Request.Context(), c.Param("callId"), strings.TrimSpace(req.Status), now())
	if err != nil {
		respondError(c, err)
		return
	}
	// A repeated close overwrites the record but never transitioned the
	// call, so it must not hand back a slot some other open call holds.
	if wasOpen {
		if relErr := h.capRelease(c.Request.Context(), call.AttendantID); relErr != nil {
			logger.FromGin(c).Error("call cap release failed", "err", relErr)
		}
	}
	c.JSON(http.StatusOK, call)
}

func isDirectoryNotFound(err error) bool {
	return errors.Is(err, directory.ErrNotFound)
}
