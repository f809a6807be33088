package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/Resume-Journal/internal/services"
)

// HealthCheck is the GET /health endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps service error kinds onto HTTP statuses.
func respondError(c *gin.Context, action string, err error) {
	status := http.StatusInternalServerError
	switch services.KindOf(err) {
	case services.ErrInvalidInput:
		status = http.StatusBadRequest
	case services.ErrNotFound:
		status = http.StatusNotFound
	case services.ErrUnknownRef, services.ErrInvalidSnap, services.ErrEmptyOrdering:
		status = http.StatusUnprocessableEntity
	case services.ErrNotConfigured, services.ErrProviderFailed:
		status = http.StatusBadGateway
	case services.ErrProviderTimeout:
		status = http.StatusGatewayTimeout
	}

	body := gin.H{"error": action + ": " + err.Error()}
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		body["error"] = action + ": " + appErr.Message
		body["kind"] = appErr.Kind
	}
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s: %v", action, err)
	}
	c.JSON(status, body)
}

func badJSON(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
}

// idParam reads a positive numeric path parameter, answering 400 if it isn't one.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + ": " + c.Param(name)})
		return 0, false
	}
	return uint(id), true
}
