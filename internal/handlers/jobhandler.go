package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/Resume-Journal/internal/dtos"
	"github.com/justsurfingit/Resume-Journal/internal/services"
)

// JobHandler edits jobs, their points, and the hand-crafted order.
type JobHandler struct {
	JobService *services.JobService
}

// NewJobHandler creates the handler with dependencies
func NewJobHandler(j *services.JobService) *JobHandler {
	return &JobHandler{JobService: j}
}

// CreateJob is the POST /jobs endpoint
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	job, err := h.JobService.CreateJob(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "Failed to create job", err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.JobService.ListJobs(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to list jobs", err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := h.JobService.GetJob(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to load job", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	job, err := h.JobService.UpdateJob(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, "Failed to update job", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteJob removes the job together with its points, overlay and snapshot rows.
func (h *JobHandler) DeleteJob(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.JobService.DeleteJob(c.Request.Context(), id); err != nil {
		respondError(c, "Failed to delete job", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReorderJobs is PUT /jobs/order with every job id in the new order.
func (h *JobHandler) ReorderJobs(c *gin.Context) {
	var req dtos.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	if err := h.JobService.ReorderJobs(c.Request.Context(), req.IDs); err != nil {
		respondError(c, "Failed to reorder jobs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MoveJob is PUT /jobs/:id/order. Only this job's display order changes;
// equal orders fall back to id order when resolving.
func (h *JobHandler) MoveJob(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.DisplayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	if err := h.JobService.SetDisplayOrder(c.Request.Context(), id, *req.DisplayOrder); err != nil {
		respondError(c, "Failed to move job", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id, "display_order": *req.DisplayOrder})
}

func (h *JobHandler) AddPoint(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.PointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	point, err := h.JobService.AddPoint(c.Request.Context(), jobID, &req)
	if err != nil {
		respondError(c, "Failed to add point", err)
		return
	}
	c.JSON(http.StatusCreated, point)
}

func (h *JobHandler) UpdatePoint(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.PointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	point, err := h.JobService.UpdatePoint(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, "Failed to update point", err)
		return
	}
	c.JSON(http.StatusOK, point)
}

func (h *JobHandler) DeletePoint(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.JobService.DeletePoint(c.Request.Context(), id); err != nil {
		respondError(c, "Failed to delete point", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *JobHandler) ReorderPoints(c *gin.Context) {
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dtos.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	if err := h.JobService.ReorderPoints(c.Request.Context(), jobID, req.IDs); err != nil {
		respondError(c, "Failed to reorder points", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
