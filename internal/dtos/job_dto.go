package dtos

type JobRequest struct {
	Title     string  `json:"title" binding:"required"`
	Company   string  `json:"company" binding:"required"`
	Location  string  `json:"location" binding:"required"`
	StartDate string  `json:"start_date" binding:"required"` // YYYY-MM
	EndDate   *string `json:"end_date"`
	Current   bool    `json:"current"`

	// Optional; appended after the last job when absent.
	DisplayOrder *int `json:"display_order"`

	// Optional bullet points created together with the job, in order.
	Points []string `json:"points"`
}

type PointRequest struct {
	Point    string `json:"point" binding:"required"`
	OrderNum *int   `json:"order_num"` // Defaults to the next free order number
}

type DisplayOrderRequest struct {
	DisplayOrder *int `json:"display_order" binding:"required"`
}

type ReorderRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}
