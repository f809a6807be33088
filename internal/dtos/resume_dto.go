package dtos

type ResumeQuery struct {
	Mode        string `form:"mode"` // handcrafted | ai | ai:<model>
	ModelType   string `form:"model_type"`
	LimitJobs   *int   `form:"limit_jobs" binding:"omitempty,min=0"`
	LimitPoints *int   `form:"limit_points" binding:"omitempty,min=0"`
}

type OptimizeRequest struct {
	ModelType      string `json:"model_type" binding:"required"`
	JobDescription string `json:"job_description" binding:"required"`
	Narrative      string `json:"narrative"`
	// Restricts the request to these jobs; every job is sent when empty.
	JobIDs []uint `json:"job_ids"`
}

type ApplicationRequest struct {
	Company        string `json:"company" binding:"required"`
	Position       string `json:"position" binding:"required"`
	JobDescription string `json:"job_description"`
	Narrative      string `json:"narrative"`
	Status         string `json:"status"` // Defaults to "APPLIED" if empty
	ModelType      string `json:"model_type"`
	Notes          string `json:"notes"`

	// Frozen snapshot: jobs in display order, and point id -> display order.
	JobIDs     []uint         `json:"job_ids"`
	PointOrder map[string]int `json:"point_order"`
}

type ApplicationPatchRequest struct {
	Company        *string `json:"company"`
	Position       *string `json:"position"`
	JobDescription *string `json:"job_description"`
	Narrative      *string `json:"narrative"`
	Status         *string `json:"status"`
	ModelType      *string `json:"model_type"`
	Notes          *string `json:"notes"`

	JobIDs     []uint         `json:"job_ids"`
	PointOrder map[string]int `json:"point_order"`
}
