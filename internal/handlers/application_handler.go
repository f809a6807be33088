package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/Resume-Journal/internal/dtos"
	"github.com/justsurfingit/Resume-Journal/internal/services"
)

type ApplicationHandler struct {
	Applications *services.ApplicationService
}

func NewApplicationHandler(a *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{Applications: a}
}

// CreateApplication is POST /applications; the job and point selection is frozen here.
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req dtos.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	app, err := h.Applications.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "Failed to create application", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": app.ID, "application": app})
}

func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	apps, err := h.Applications.List(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to list applications", err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	app, err := h.Applications.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to load application", err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.ApplicationPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	app, err := h.Applications.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, "Failed to update application", err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Applications.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "Failed to delete application", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetApplicationJobs is GET /applications/:id/jobs, in frozen snapshot order.
func (h *ApplicationHandler) GetApplicationJobs(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	jobs, err := h.Applications.GetJobsForApplication(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to load application jobs", err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}
