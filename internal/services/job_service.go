package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/Resume-Journal/internal/dtos"
	"github.com/justsurfingit/Resume-Journal/internal/models"
	"gorm.io/gorm"
)

// JobService owns jobs and their bullet points (the base, hand-crafted order).
type JobService struct {
	DB *gorm.DB
}

func NewJobService(db *gorm.DB) *JobService {
	return &JobService{
		DB: db,
	}
}

func (s *JobService) CreateJob(ctx context.Context, req *dtos.JobRequest) (*models.Job, error) {
	if err := validateJobRequest(req); err != nil {
		return nil, err
	}
	job := &models.Job{
		Title:     strings.TrimSpace(req.Title),
		Company:   strings.TrimSpace(req.Company),
		Location:  strings.TrimSpace(req.Location),
		StartDate: strings.TrimSpace(req.StartDate),
		EndDate:   normalizeEnd(req.EndDate),
		Current:   req.Current,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.DisplayOrder != nil {
			job.DisplayOrder = *req.DisplayOrder
		} else {
			next, err := nextValue(tx.Model(&models.Job{}), "display_order")
			if err != nil {
				return err
			}
			job.DisplayOrder = next
		}
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		for i, text := range req.Points {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			point := models.JobPoint{JobID: job.ID, Point: text, OrderNum: i + 1}
			if err := tx.Create(&point).Error; err != nil {
				return err
			}
			job.Points = append(job.Points, point)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// GetJob returns the job with its points in base order.
func (s *JobService) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	err := s.DB.WithContext(ctx).
		Preload("Points", func(db *gorm.DB) *gorm.DB { return db.Order("order_num ASC, id ASC") }).
		First(&job, id).Error
	if err != nil {
		return nil, notFound(err, "job %d", id)
	}
	return &job, nil
}

// ListJobs returns every job with its points, both in base order.
func (s *JobService) ListJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	err := s.DB.WithContext(ctx).
		Preload("Points", func(db *gorm.DB) *gorm.DB { return db.Order("order_num ASC, id ASC") }).
		Order("display_order ASC, id ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (s *JobService) UpdateJob(ctx context.Context, id uint, req *dtos.JobRequest) (*models.Job, error) {
	if err := validateJobRequest(req); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"title":      strings.TrimSpace(req.Title),
		"company":    strings.TrimSpace(req.Company),
		"location":   strings.TrimSpace(req.Location),
		"start_date": strings.TrimSpace(req.StartDate),
		"end_date":   normalizeEnd(req.EndDate),
		"current":    req.Current,
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}
	res := s.DB.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update job %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, newError(ErrNotFound, "job %d not found", id)
	}
	return s.GetJob(ctx, id)
}

// SetDisplayOrder moves one job without touching the others.
func (s *JobService) SetDisplayOrder(ctx context.Context, id uint, order int) error {
	res := s.DB.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Update("display_order", order)
	if res.Error != nil {
		return fmt.Errorf("set display order of job %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return newError(ErrNotFound, "job %d not found", id)
	}
	return nil
}

// DeleteJob removes a job and everything that references it, children first:
// overlay rows, snapshot rows, points, then the job.
func (s *JobService) DeleteJob(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.Select("id").First(&job, id).Error; err != nil {
			return notFound(err, "job %d", id)
		}
		pointIDs := tx.Model(&models.JobPoint{}).Select("id").Where("job_id = ?", id)

		steps := []struct {
			what  string
			query *gorm.DB
			model any
		}{
			{"ai point orders", tx.Where("job_id = ? OR point_id IN (?)", id, pointIDs), &models.AIPointOrder{}},
			{"ai job orders", tx.Where("job_id = ?", id), &models.AIJobOrder{}},
			{"application points", tx.Where("point_id IN (?)", pointIDs), &models.ApplicationPoint{}},
			{"application jobs", tx.Where("job_id = ?", id), &models.ApplicationJob{}},
			{"points", tx.Where("job_id = ?", id), &models.JobPoint{}},
			{"job", tx.Where("id = ?", id), &models.Job{}},
		}
		for _, step := range steps {
			if err := step.query.Delete(step.model).Error; err != nil {
				return fmt.Errorf("delete %s of job %d: %w", step.what, id, err)
			}
		}
		return nil
	})
}

// ReorderJobs rewrites display_order as 1..n following ids, which must name
// every job exactly once.
func (s *JobService) ReorderJobs(ctx context.Context, ids []uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uint
		if err := tx.Model(&models.Job{}).Pluck("id", &existing).Error; err != nil {
			return err
		}
		if err := samePermutation(existing, ids, "job"); err != nil {
			return err
		}
		for i, id := range ids {
			if err := tx.Model(&models.Job{}).Where("id = ?", id).Update("display_order", i+1).Error; err != nil {
				return fmt.Errorf("reorder job %d: %w", id, err)
			}
		}
		return nil
	})
}

// AddPoint appends a bullet point; without an explicit order it goes last.
func (s *JobService) AddPoint(ctx context.Context, jobID uint, req *dtos.PointRequest) (*models.JobPoint, error) {
	text := strings.TrimSpace(req.Point)
	if text == "" {
		return nil, newError(ErrInvalidInput, "point text is empty")
	}
	point := &models.JobPoint{JobID: jobID, Point: text}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.Select("id").First(&job, jobID).Error; err != nil {
			return notFound(err, "job %d", jobID)
		}
		if req.OrderNum != nil {
			point.OrderNum = *req.OrderNum
		} else {
			next, err := nextOrderNum(tx, jobID)
			if err != nil {
				return err
			}
			point.OrderNum = next
		}
		return tx.Create(point).Error
	})
	if err != nil {
		return nil, err
	}
	return point, nil
}

// nextOrderNum returns the order number a new point of jobID would get.
func nextOrderNum(db *gorm.DB, jobID uint) (int, error) {
	return nextValue(db.Model(&models.JobPoint{}).Where("job_id = ?", jobID), "order_num")
}

func (s *JobService) UpdatePoint(ctx context.Context, id uint, req *dtos.PointRequest) (*models.JobPoint, error) {
	text := strings.TrimSpace(req.Point)
	if text == "" {
		return nil, newError(ErrInvalidInput, "point text is empty")
	}
	updates := map[string]interface{}{"point": text}
	if req.OrderNum != nil {
		updates["order_num"] = *req.OrderNum
	}
	res := s.DB.WithContext(ctx).Model(&models.JobPoint{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update point %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, newError(ErrNotFound, "point %d not found", id)
	}
	var point models.JobPoint
	if err := s.DB.WithContext(ctx).First(&point, id).Error; err != nil {
		return nil, notFound(err, "point %d", id)
	}
	return &point, nil
}

// DeletePoint removes a point with its overlay and snapshot rows.
func (s *JobService) DeletePoint(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var point models.JobPoint
		if err := tx.Select("id").First(&point, id).Error; err != nil {
			return notFound(err, "point %d", id)
		}
		if err := tx.Where("point_id = ?", id).Delete(&models.AIPointOrder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("point_id = ?", id).Delete(&models.ApplicationPoint{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.JobPoint{}, id).Error
	})
}

// ReorderPoints rewrites order_num as 1..n for the points of one job.
func (s *JobService) ReorderPoints(ctx context.Context, jobID uint, ids []uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uint
		if err := tx.Model(&models.JobPoint{}).Where("job_id = ?", jobID).Pluck("id", &existing).Error; err != nil {
			return err
		}
		if err := samePermutation(existing, ids, "point"); err != nil {
			return err
		}
		for i, id := range ids {
			if err := tx.Model(&models.JobPoint{}).Where("id = ?", id).Update("order_num", i+1).Error; err != nil {
				return fmt.Errorf("reorder point %d: %w", id, err)
			}
		}
		return nil
	})
}

func validateJobRequest(req *dtos.JobRequest) error {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Company) == "" || strings.TrimSpace(req.Location) == "" {
		return newError(ErrInvalidInput, "title, company and location are required")
	}
	if !ValidPeriodDate(req.StartDate) {
		return newError(ErrInvalidInput, "start_date %q is not YYYY-MM", req.StartDate)
	}
	end := normalizeEnd(req.EndDate)
	if end != nil {
		if req.Current {
			return newError(ErrInvalidInput, "a job cannot have an end_date and be current")
		}
		if !ValidPeriodDate(*end) {
			return newError(ErrInvalidInput, "end_date %q is not YYYY-MM", *end)
		}
	}
	return nil
}

func normalizeEnd(end *string) *string {
	if end == nil {
		return nil
	}
	v := strings.TrimSpace(*end)
	if v == "" {
		return nil
	}
	return &v
}

// nextValue returns MAX(column)+1 over q; 1 when q matches nothing.
func nextValue(q *gorm.DB, column string) (int, error) {
	var max int
	if err := q.Select("COALESCE(MAX(" + column + "), 0)").Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("max %s: %w", column, err)
	}
	return max + 1, nil
}

func samePermutation(existing, ids []uint, what string) error {
	if len(ids) != len(existing) {
		return newError(ErrInvalidInput, "expected %d %s ids, got %d", len(existing), what, len(ids))
	}
	known := make(map[uint]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !known[id] {
			return newError(ErrUnknownRef, "unknown %s %d", what, id)
		}
		if seen[id] {
			return newError(ErrInvalidInput, "%s %d listed twice", what, id)
		}
		seen[id] = true
	}
	return nil
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, format+" not found", args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
