package main

import (
	"database/sql"
	"net/http"
	"time"

	"callcenter-api/internal/authgate"
	"callcenter-api/internal/config"
	"callcenter-api/internal/httpapi"
	"callcenter-api/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, cfg config.Config, db *sql.DB) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Read endpoints that expose the directory and the attendant roster
	// sit behind the shared-secret email gate.
	gate := authgate.RequireAuthEmail(cfg.Auth.AuthEmails)

	persons := r.Group("/persons")
	{
		persons.POST("", h.CreatePerson)
		persons.GET("", gate, h.ListPersons)
		persons.POST("/:personId/phones", h.AddPhones)
		persons.DELETE("/:personId", h.DeletePerson)
	}

	phones := r.Group("/phones")
	{
		phones.GET("/search", gate, h.SearchPhone)
		phones.DELETE("/:phoneId", h.DeletePhone)
		phones.GET("/:phoneId/calls", h.PhoneCalls)
	}

	attendantRoutes := r.Group("/attendants")
	{
		attendantRoutes.POST("", h.CreateAttendant)
		attendantRoutes.GET("", gate, h.ListAttendants)
		attendantRoutes.GET("/:attendantId", h.GetAttendant)
		attendantRoutes.PATCH("/:attendantId", h.PatchAttendant)
		attendantRoutes.DELETE("/:attendantId", h.DeleteAttendant)
		attendantRoutes.POST("/:attendantId/token", h.IssueToken)
		attendantRoutes.GET("/:attendantId/calls", h.AttendantCalls)
	}

	callRoutes := r.Group("/calls")
	{
		callRoutes.POST("/open", h.OpenCall)
		callRoutes.POST("/:callId/close", h.CloseCall)
	}
}
