package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/Resume-Journal/internal/dtos"
	"github.com/justsurfingit/Resume-Journal/internal/models"
	"github.com/justsurfingit/Resume-Journal/internal/services"
)

// AIHandler exposes suggestion ingestion and provider diagnostics.
type AIHandler struct {
	Optimizer  *services.Optimizer
	LLMService *services.LLMService
	Overlays   *services.OverlayStore
}

func NewAIHandler(o *services.Optimizer, llm *services.LLMService, overlays *services.OverlayStore) *AIHandler {
	return &AIHandler{Optimizer: o, LLMService: llm, Overlays: overlays}
}

// Optimize is POST /ai/optimize. A rejected suggestion is still a 200: the
// body says why and nothing was written.
func (h *AIHandler) Optimize(c *gin.Context) {
	var req dtos.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	model, err := models.ParseModelType(req.ModelType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid model_type: " + err.Error()})
		return
	}

	result, err := h.Optimizer.RequestOptimization(c.Request.Context(), services.OptimizationRequest{
		Model:          model,
		JobDescription: req.JobDescription,
		Narrative:      req.Narrative,
		JobIDs:         req.JobIDs,
	})
	if err != nil {
		respondError(c, "Optimization failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// TestConnection is GET /ai/test?model_type=
func (h *AIHandler) TestConnection(c *gin.Context) {
	model, err := models.ParseModelType(c.Query("model_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid model_type: " + err.Error()})
		return
	}
	reply, err := h.LLMService.TestConnection(c.Request.Context(), model)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "model_type": model, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "model_type": model, "response": reply})
}

// ListModels is GET /ai/models: the built-in identifiers and the ones with a
// provider configured in this process.
func (h *AIHandler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"known": models.KnownModels(), "configured": h.LLMService.Models()})
}

func (h *AIHandler) TestAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.LLMService.TestConnections(c.Request.Context())})
}

// OverlaySummary is GET /ai/overlays/:model
func (h *AIHandler) OverlaySummary(c *gin.Context) {
	model, err := models.ParseModelType(c.Param("model"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid model: " + err.Error()})
		return
	}
	sum, err := h.Overlays.Summary(c.Request.Context(), model)
	if err != nil {
		respondError(c, "Failed to read overlay", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// ClearOverlay is DELETE /ai/overlays/:model; the resume falls back to base order.
func (h *AIHandler) ClearOverlay(c *gin.Context) {
	model, err := models.ParseModelType(c.Param("model"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid model: " + err.Error()})
		return
	}
	removed, err := h.Overlays.Clear(c.Request.Context(), model)
	if err != nil {
		respondError(c, "Failed to clear overlay", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"model_type": model, "removed": removed})
}
