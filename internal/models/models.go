package models

import (
	"time"
)

// Table names are pinned so the schema reads the same under Postgres and SQLite.

type Job struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title     string  `gorm:"not null" json:"title"`
	Company   string  `gorm:"not null" json:"company"`
	Location  string  `gorm:"not null" json:"location"`
	StartDate string  `gorm:"not null" json:"start_date"` // YYYY-MM
	EndDate   *string `json:"end_date"`
	Current   bool    `gorm:"default:false" json:"current"`

	// Base (hand-crafted) ordering among all jobs.
	DisplayOrder int `gorm:"index;not null;default:0" json:"display_order"`

	// Association: Preload("Points") to fill this
	Points []JobPoint `gorm:"constraint:OnDelete:CASCADE" json:"points,omitempty"`
}

func (Job) TableName() string { return "jobs" }

type JobPoint struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	JobID    uint   `gorm:"not null;index" json:"job_id"`
	Point    string `gorm:"type:text;not null" json:"point"`
	OrderNum int    `gorm:"not null;default:0" json:"order_num"`
}

func (JobPoint) TableName() string { return "job_points" }

// AIJobOrder is one row of a model's job overlay.
type AIJobOrder struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	JobID          uint      `gorm:"not null;index" json:"job_id"`
	AIDisplayOrder int       `gorm:"column:ai_display_order;not null" json:"ai_display_order"`
	ModelType      string    `gorm:"not null;index" json:"model_type"`
	Generation     string    `gorm:"not null;index" json:"generation"`
}

func (AIJobOrder) TableName() string { return "ai_job_orders" }

// AIPointOrder is one row of a model's point overlay.
type AIPointOrder struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	JobID          uint      `gorm:"not null;index" json:"job_id"`
	PointID        uint      `gorm:"not null;index" json:"point_id"`
	AIOrderNum     int       `gorm:"column:ai_order_num;not null" json:"ai_order_num"`
	RelevanceScore float64   `gorm:"not null;default:0" json:"relevance_score"`
	ModelType      string    `gorm:"not null;index" json:"model_type"`
	Generation     string    `gorm:"not null;index" json:"generation"`
}

func (AIPointOrder) TableName() string { return "ai_point_orders" }

type Application struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Company        string `gorm:"not null" json:"company"`
	Position       string `gorm:"not null" json:"position"`
	JobDescription string `gorm:"type:text" json:"job_description"`
	Narrative      string `gorm:"type:text" json:"narrative"`
	Status         string `gorm:"default:'APPLIED'" json:"status"`
	ModelType      string `json:"model_type,omitempty"`
	Notes          string `gorm:"type:text" json:"notes,omitempty"`
}

func (Application) TableName() string { return "applications" }

// ApplicationJob and ApplicationPoint are the frozen snapshot rows of an application.
type ApplicationJob struct {
	ApplicationID uint `gorm:"primaryKey;autoIncrement:false" json:"application_id"`
	JobID         uint `gorm:"primaryKey;autoIncrement:false" json:"job_id"`
	DisplayOrder  int  `gorm:"not null" json:"display_order"`
}

func (ApplicationJob) TableName() string { return "application_jobs" }

type ApplicationPoint struct {
	ApplicationID uint `gorm:"primaryKey;autoIncrement:false" json:"application_id"`
	PointID       uint `gorm:"primaryKey;autoIncrement:false" json:"point_id"`
	DisplayOrder  int  `gorm:"not null" json:"display_order"`
}

func (ApplicationPoint) TableName() string { return "application_points" }

// All lists every table the service owns, in creation order.
func All() []any {
	return []any{
		&Job{}, &JobPoint{},
		&AIJobOrder{}, &AIPointOrder{},
		&Application{}, &ApplicationJob{}, &ApplicationPoint{},
	}
}
