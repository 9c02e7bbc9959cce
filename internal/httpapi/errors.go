package httpapi

import (
	"errors"
	"net/http"

	"callcenter-api/internal/attendants"
	"callcenter-api/internal/calls"
	"callcenter-api/internal/directory"
	"callcenter-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors to 4xx responses with a structured
// message. Anything unrecognized (storage transport failures included) is a
// generic 500 with no internal detail leaked.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendants.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Attendant not found"})
	case errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Call not found"})
	case errors.Is(err, directory.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Record not found"})
	case errors.Is(err, attendants.ErrAlreadyDeleted), errors.Is(err, directory.ErrAlreadyDeleted):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "The record has already been deleted previously."})
	case errors.Is(err, attendants.ErrNotOnline):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Attendant must be online to create a call"})
	case errors.Is(err, attendants.ErrTokenExpired):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Attendant token is invalid or expired"})
	case errors.Is(err, calls.ErrInvalidStatus):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid call status."})
	case errors.Is(err, attendants.ErrInvalidField):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Field cannot be changed."})
	case errors.Is(err, attendants.ErrInvalidArgument),
		errors.Is(err, calls.ErrInvalidArgument),
		errors.Is(err, directory.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request."})
	default:
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
	}
}
