package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/justsurfingit/Resume-Journal/internal/dtos"
	"github.com/justsurfingit/Resume-Journal/internal/models"
	"gorm.io/gorm"
)

const defaultStatus = "APPLIED"

// ApplicationService stores applications together with the frozen job/point
// selection that was sent with each of them.
type ApplicationService struct {
	DB    *gorm.DB
	locks *KeyedMutex
}

func NewApplicationService(db *gorm.DB, locks *KeyedMutex) *ApplicationService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &ApplicationService{DB: db, locks: locks}
}

// ApplicationDetail is an application plus its snapshot as stored.
type ApplicationDetail struct {
	models.Application
	JobIDs     []uint         `json:"job_ids"`
	PointOrder map[string]int `json:"point_order"`
}

// Create stores the application and its snapshot in one transaction.
// Jobs get orders 1..n as listed; points keep the caller's order values.
func (s *ApplicationService) Create(ctx context.Context, req *dtos.ApplicationRequest) (*models.Application, error) {
	company, position := strings.TrimSpace(req.Company), strings.TrimSpace(req.Position)
	if company == "" || position == "" {
		return nil, newError(ErrInvalidInput, "company and position are required")
	}
	modelType, err := optionalModel(req.ModelType)
	if err != nil {
		return nil, err
	}

	app := &models.Application{
		Company:        company,
		Position:       position,
		JobDescription: req.JobDescription,
		Narrative:      req.Narrative,
		Status:         normalizeStatus(req.Status),
		ModelType:      modelType,
		Notes:          req.Notes,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(app).Error; err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		return writeSnapshot(tx, app.ID, req.JobIDs, req.PointOrder)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[application:%d] ✅ created for %s / %s with %d jobs and %d points", app.ID, app.Company, app.Position, len(req.JobIDs), len(req.PointOrder))
	return app, nil
}

// Update applies the non-nil fields of req. If req names job ids or point
// orders, the snapshot is replaced. Missing job ids keep the current job
// selection; missing point orders keep the current points whose job is still
// selected.
func (s *ApplicationService) Update(ctx context.Context, id uint, req *dtos.ApplicationPatchRequest) (*ApplicationDetail, error) {
	unlock := s.locks.Lock(snapshotKey(id))
	defer unlock()

	updates := map[string]interface{}{}
	for column, v := range map[string]*string{
		"company":         req.Company,
		"position":        req.Position,
		"job_description": req.JobDescription,
		"narrative":       req.Narrative,
		"notes":           req.Notes,
	} {
		if v == nil {
			continue
		}
		if column == "company" || column == "position" {
			updates[column] = strings.TrimSpace(*v)
		} else {
			updates[column] = *v
		}
	}
	if req.Company != nil && strings.TrimSpace(*req.Company) == "" {
		return nil, newError(ErrInvalidInput, "company cannot be empty")
	}
	if req.Position != nil && strings.TrimSpace(*req.Position) == "" {
		return nil, newError(ErrInvalidInput, "position cannot be empty")
	}
	if req.Status != nil {
		updates["status"] = normalizeStatus(*req.Status)
	}
	if req.ModelType != nil {
		m, err := optionalModel(*req.ModelType)
		if err != nil {
			return nil, err
		}
		updates["model_type"] = m
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.Application
		if err := tx.Select("id").First(&app, id).Error; err != nil {
			return notFound(err, "application %d", id)
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Application{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("update application %d: %w", id, err)
			}
		}
		if req.JobIDs == nil && req.PointOrder == nil {
			return nil
		}

		current, err := loadSnapshot(tx, id)
		if err != nil {
			return err
		}
		jobIDs, pointOrder := req.JobIDs, req.PointOrder
		if jobIDs == nil {
			jobIDs = current.JobIDs
		}
		if pointOrder == nil {
			pointOrder, err = keepSelectedPoints(tx, current.PointOrder, jobIDs)
			if err != nil {
				return err
			}
		}
		return writeSnapshot(tx, id, jobIDs, pointOrder)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *ApplicationService) Get(ctx context.Context, id uint) (*ApplicationDetail, error) {
	db := s.DB.WithContext(ctx)
	var app models.Application
	if err := db.First(&app, id).Error; err != nil {
		return nil, notFound(err, "application %d", id)
	}
	detail, err := loadSnapshot(db, id)
	if err != nil {
		return nil, err
	}
	detail.Application = app
	return detail, nil
}

// List returns applications newest first.
func (s *ApplicationService) List(ctx context.Context) ([]models.Application, error) {
	var apps []models.Application
	if err := s.DB.WithContext(ctx).Order("created_at DESC, id DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// Delete removes the snapshot rows and then the application.
func (s *ApplicationService) Delete(ctx context.Context, id uint) error {
	unlock := s.locks.Lock(snapshotKey(id))
	defer unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.Application
		if err := tx.Select("id").First(&app, id).Error; err != nil {
			return notFound(err, "application %d", id)
		}
		if err := tx.Where("application_id = ?", id).Delete(&models.ApplicationPoint{}).Error; err != nil {
			return fmt.Errorf("delete snapshot points of application %d: %w", id, err)
		}
		if err := tx.Where("application_id = ?", id).Delete(&models.ApplicationJob{}).Error; err != nil {
			return fmt.Errorf("delete snapshot jobs of application %d: %w", id, err)
		}
		return tx.Delete(&models.Application{}, id).Error
	})
}

// GetJobsForApplication returns the snapshot's jobs in snapshot order, each
// with only its snapshot points in snapshot order. Base and AI orders are
// never consulted. Jobs or points deleted since are left out.
func (s *ApplicationService) GetJobsForApplication(ctx context.Context, id uint) ([]ResolvedJob, error) {
	db := s.DB.WithContext(ctx)
	var app models.Application
	if err := db.Select("id").First(&app, id).Error; err != nil {
		return nil, notFound(err, "application %d", id)
	}

	var jobs []jobRow
	err := db.Table("application_jobs AS aj").
		Select("j.id, j.title, j.company, j.location, j.start_date, j.end_date, j.current, aj.display_order AS display_order").
		Joins("JOIN jobs AS j ON j.id = aj.job_id").
		Where("aj.application_id = ?", id).
		Order("aj.display_order ASC, j.id ASC").
		Scan(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("load snapshot jobs of application %d: %w", id, err)
	}

	var points []pointRow
	err = db.Table("application_points AS ap").
		Select("p.id, p.job_id, p.point, ap.display_order AS order_num").
		Joins("JOIN job_points AS p ON p.id = ap.point_id").
		Joins("JOIN application_jobs AS aj ON aj.application_id = ap.application_id AND aj.job_id = p.job_id").
		Where("ap.application_id = ?", id).
		Order("ap.display_order ASC, p.id ASC").
		Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("load snapshot points of application %d: %w", id, err)
	}

	byJob := make(map[uint][]ResolvedPoint)
	for _, p := range points {
		byJob[p.JobID] = append(byJob[p.JobID], ResolvedPoint{ID: p.ID, JobID: p.JobID, Text: p.Point, Order: p.OrderNum})
	}
	out := make([]ResolvedJob, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, ResolvedJob{
			ID:        j.ID,
			Title:     j.Title,
			Company:   j.Company,
			Location:  j.Location,
			StartDate: j.StartDate,
			EndDate:   j.EndDate,
			Current:   j.Current,
			Dates:     FormatDates(j.StartDate, j.EndDate, j.Current),
			Order:     j.DisplayOrder,
			Points:    limitPoints(byJob[j.ID], nil),
		})
	}
	return out, nil
}

// writeSnapshot validates the selection and replaces the snapshot rows of
// appID. It must run inside a transaction.
func writeSnapshot(tx *gorm.DB, appID uint, jobIDs []uint, pointOrder map[string]int) error {
	selected := make(map[uint]bool, len(jobIDs))
	for _, id := range jobIDs {
		if selected[id] {
			return newError(ErrInvalidInput, "job %d listed twice", id)
		}
		selected[id] = true
	}

	if len(jobIDs) > 0 {
		var found []uint
		if err := tx.Model(&models.Job{}).Where("id IN ?", jobIDs).Pluck("id", &found).Error; err != nil {
			return fmt.Errorf("check snapshot jobs: %w", err)
		}
		if len(found) != len(jobIDs) {
			known := make(map[uint]bool, len(found))
			for _, id := range found {
				known[id] = true
			}
			for _, id := range jobIDs {
				if !known[id] {
					return newError(ErrUnknownRef, "unknown job %d", id)
				}
			}
		}
	}

	pointIDs := make([]uint, 0, len(pointOrder))
	orders := make(map[uint]int, len(pointOrder))
	for key, order := range pointOrder {
		id, err := parseID(key)
		if err != nil {
			return newError(ErrInvalidInput, "point id %q is not a non-negative integer", key)
		}
		if _, dup := orders[id]; dup {
			return newError(ErrInvalidInput, "point %d listed twice", id)
		}
		pointIDs = append(pointIDs, id)
		orders[id] = order
	}
	sort.Slice(pointIDs, func(i, j int) bool { return pointIDs[i] < pointIDs[j] })

	if len(pointIDs) > 0 {
		var owners []struct {
			ID    uint
			JobID uint
		}
		if err := tx.Model(&models.JobPoint{}).Select("id, job_id").Where("id IN ?", pointIDs).Scan(&owners).Error; err != nil {
			return fmt.Errorf("check snapshot points: %w", err)
		}
		ownerOf := make(map[uint]uint, len(owners))
		for _, o := range owners {
			ownerOf[o.ID] = o.JobID
		}
		for _, id := range pointIDs {
			owner, ok := ownerOf[id]
			if !ok {
				return newError(ErrUnknownRef, "unknown point %d", id)
			}
			if !selected[owner] {
				return newError(ErrInvalidSnap, "point %d belongs to job %d, which is not in the snapshot", id, owner)
			}
		}
	}

	if err := tx.Where("application_id = ?", appID).Delete(&models.ApplicationPoint{}).Error; err != nil {
		return fmt.Errorf("clear snapshot points: %w", err)
	}
	if err := tx.Where("application_id = ?", appID).Delete(&models.ApplicationJob{}).Error; err != nil {
		return fmt.Errorf("clear snapshot jobs: %w", err)
	}

	if len(jobIDs) > 0 {
		rows := make([]models.ApplicationJob, 0, len(jobIDs))
		for i, id := range jobIDs {
			rows = append(rows, models.ApplicationJob{ApplicationID: appID, JobID: id, DisplayOrder: i + 1})
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("insert snapshot jobs: %w", err)
		}
	}
	if len(pointIDs) > 0 {
		rows := make([]models.ApplicationPoint, 0, len(pointIDs))
		for _, id := range pointIDs {
			rows = append(rows, models.ApplicationPoint{ApplicationID: appID, PointID: id, DisplayOrder: orders[id]})
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("insert snapshot points: %w", err)
		}
	}
	return nil
}

func loadSnapshot(db *gorm.DB, appID uint) (*ApplicationDetail, error) {
	detail := &ApplicationDetail{JobIDs: []uint{}, PointOrder: map[string]int{}}

	var jobs []models.ApplicationJob
	if err := db.Where("application_id = ?", appID).Order("display_order ASC, job_id ASC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("load snapshot of application %d: %w", appID, err)
	}
	for _, j := range jobs {
		detail.JobIDs = append(detail.JobIDs, j.JobID)
	}

	var points []models.ApplicationPoint
	if err := db.Where("application_id = ?", appID).Find(&points).Error; err != nil {
		return nil, fmt.Errorf("load snapshot points of application %d: %w", appID, err)
	}
	for _, p := range points {
		detail.PointOrder[strconv.FormatUint(uint64(p.PointID), 10)] = p.DisplayOrder
	}
	return detail, nil
}

// keepSelectedPoints drops entries whose point is gone or whose job is not in jobIDs.
func keepSelectedPoints(tx *gorm.DB, pointOrder map[string]int, jobIDs []uint) (map[string]int, error) {
	out := make(map[string]int, len(pointOrder))
	if len(pointOrder) == 0 || len(jobIDs) == 0 {
		return out, nil
	}
	var kept []uint
	if err := tx.Model(&models.JobPoint{}).Where("job_id IN ?", jobIDs).Pluck("id", &kept).Error; err != nil {
		return nil, fmt.Errorf("load points of selected jobs: %w", err)
	}
	for _, id := range kept {
		key := strconv.FormatUint(uint64(id), 10)
		if order, ok := pointOrder[key]; ok {
			out[key] = order
		}
	}
	return out, nil
}

func normalizeStatus(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultStatus
	}
	return s
}

func optionalModel(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	m, err := models.ParseModelType(s)
	if err != nil {
		return "", newError(ErrInvalidInput, "%v", err)
	}
	return m.String(), nil
}
