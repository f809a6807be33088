package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/Resume-Journal/internal/dtos"
	"github.com/justsurfingit/Resume-Journal/internal/models"
	"github.com/justsurfingit/Resume-Journal/internal/services"
	"gopkg.in/yaml.v3"
)

type ResumeHandler struct {
	Resolver      *services.Resolver
	PreviewPoints int
}

func NewResumeHandler(r *services.Resolver, previewPoints int) *ResumeHandler {
	return &ResumeHandler{Resolver: r, PreviewPoints: previewPoints}
}

// GetResume is GET /resume?mode=handcrafted|ai|ai:<model>&model_type=&limit_jobs=&limit_points=
func (h *ResumeHandler) GetResume(c *gin.Context) {
	req, ok := h.viewRequest(c)
	if !ok {
		return
	}
	jobs, err := h.Resolver.Resolve(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Failed to resolve resume", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":       req.Mode,
		"model_type": req.Model,
		"jobs":       services.WithPreview(jobs, h.PreviewPoints),
	})
}

type resumeExport struct {
	Generated string            `yaml:"generated"`
	Mode      services.ViewMode `yaml:"mode"`
	ModelType models.ModelType  `yaml:"model_type,omitempty"`
	Jobs      []exportedJob     `yaml:"jobs"`
}

type exportedJob struct {
	Title    string   `yaml:"title"`
	Company  string   `yaml:"company"`
	Location string   `yaml:"location"`
	Dates    string   `yaml:"dates"`
	Points   []string `yaml:"points"`
}

// ExportResume renders the resolved view as YAML for an external renderer.
func (h *ResumeHandler) ExportResume(c *gin.Context) {
	req, ok := h.viewRequest(c)
	if !ok {
		return
	}
	jobs, err := h.Resolver.Resolve(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Failed to resolve resume", err)
		return
	}

	doc := resumeExport{
		Generated: time.Now().UTC().Format(time.RFC3339),
		Mode:      req.Mode,
		ModelType: req.Model,
		Jobs:      make([]exportedJob, 0, len(jobs)),
	}
	for _, j := range jobs {
		ej := exportedJob{Title: j.Title, Company: j.Company, Location: j.Location, Dates: j.Dates, Points: []string{}}
		for _, p := range j.Points {
			ej.Points = append(ej.Points, p.Text)
		}
		doc.Jobs = append(doc.Jobs, ej)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		respondError(c, "Failed to render resume", err)
		return
	}
	c.Data(http.StatusOK, "application/yaml; charset=utf-8", out)
}

func (h *ResumeHandler) viewRequest(c *gin.Context) (services.ViewRequest, bool) {
	var q dtos.ResumeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return services.ViewRequest{}, false
	}
	mode, model, err := services.ParseViewMode(q.Mode)
	if err != nil {
		respondError(c, "Invalid view", err)
		return services.ViewRequest{}, false
	}
	req := services.ViewRequest{Mode: mode, LimitJobs: q.LimitJobs, LimitPointsPerJob: q.LimitPoints}
	if mode == services.ModeAI {
		if model == "" {
			model = q.ModelType
		}
		m, err := models.ParseModelType(model)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid model_type: " + err.Error()})
			return services.ViewRequest{}, false
		}
		req.Model = m
	}
	return req, true
}
