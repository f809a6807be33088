package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Router struct {
	Jobs         *JobHandler
	Resume       *ResumeHandler
	AI           *AIHandler
	Applications *ApplicationHandler
	// AllowOrigins of nil or ["*"] allows every origin.
	AllowOrigins []string
}

// Engine builds the gin engine with CORS and every /api/v1 route.
func (rt *Router) Engine() *gin.Engine {
	r := gin.Default()
	config := cors.DefaultConfig()
	if len(rt.AllowOrigins) == 0 || (len(rt.AllowOrigins) == 1 && rt.AllowOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = rt.AllowOrigins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(config))

	api := r.Group("/api/v1")
	{
		api.GET("/health", HealthCheck)

		// Resume views
		api.GET("/resume", rt.Resume.GetResume)
		api.GET("/resume/export", rt.Resume.ExportResume)

		// Jobs and points
		api.GET("/jobs", rt.Jobs.ListJobs)
		api.POST("/jobs", rt.Jobs.CreateJob)
		api.PUT("/jobs/order", rt.Jobs.ReorderJobs)
		api.GET("/jobs/:id", rt.Jobs.GetJob)
		api.PUT("/jobs/:id", rt.Jobs.UpdateJob)
		api.DELETE("/jobs/:id", rt.Jobs.DeleteJob)
		api.PUT("/jobs/:id/order", rt.Jobs.MoveJob)
		api.POST("/jobs/:id/points", rt.Jobs.AddPoint)
		api.PUT("/jobs/:id/points/order", rt.Jobs.ReorderPoints)
		api.PUT("/points/:id", rt.Jobs.UpdatePoint)
		api.DELETE("/points/:id", rt.Jobs.DeletePoint)

		// AI suggestions
		api.POST("/ai/optimize", rt.AI.Optimize)
		api.GET("/ai/test", rt.AI.TestConnection)
		api.GET("/ai/test-all", rt.AI.TestAll)
		api.GET("/ai/models", rt.AI.ListModels)
		api.GET("/ai/overlays/:model", rt.AI.OverlaySummary)
		api.DELETE("/ai/overlays/:model", rt.AI.ClearOverlay)

		// Applications
		api.POST("/applications", rt.Applications.CreateApplication)
		api.GET("/applications", rt.Applications.ListApplications)
		api.GET("/applications/:id", rt.Applications.GetApplication)
		api.PATCH("/applications/:id", rt.Applications.UpdateApplication)
		api.DELETE("/applications/:id", rt.Applications.DeleteApplication)
		api.GET("/applications/:id/jobs", rt.Applications.GetApplicationJobs)
	}
	return r
}
