package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/justsurfingit/Resume-Journal/internal/models"
	"gorm.io/gorm"
)

// ViewMode selects which ordering source a resume view uses.
type ViewMode string

const (
	ModeManual ViewMode = "manual"
	ModeAI     ViewMode = "ai"
)

// ParseViewMode accepts "manual"/"handcrafted" (or empty), "ai", and the
// combined "ai:<model>" form. The model part, if any, is returned separately.
func ParseViewMode(s string) (ViewMode, string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "" || v == "manual" || v == "handcrafted":
		return ModeManual, "", nil
	case v == "ai":
		return ModeAI, "", nil
	case strings.HasPrefix(v, "ai:"):
		return ModeAI, strings.TrimPrefix(v, "ai:"), nil
	default:
		return "", "", newError(ErrInvalidInput, "unknown view mode %q", s)
	}
}

// ViewRequest is one resolution call. Nil limits mean unrestricted.
type ViewRequest struct {
	Mode              ViewMode
	Model             models.ModelType
	LimitJobs         *int
	LimitPointsPerJob *int
}

type ResolvedPoint struct {
	ID    uint     `json:"id" yaml:"id"`
	JobID uint     `json:"job_id" yaml:"-"`
	Text  string   `json:"point" yaml:"point"`
	Order int      `json:"order" yaml:"order"`
	Score *float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

type ResolvedJob struct {
	ID        uint            `json:"id"`
	Title     string          `json:"title"`
	Company   string          `json:"company"`
	Location  string          `json:"location"`
	StartDate string          `json:"start_date"`
	EndDate   *string         `json:"end_date"`
	Current   bool            `json:"current"`
	Dates     string          `json:"dates"`
	Order     int             `json:"order"`
	Points    []ResolvedPoint `json:"points"`

	// ResumePoints is the text of the first few points, filled by WithPreview.
	ResumePoints []string `json:"resume_points,omitempty" yaml:"-"`
}

// Resolver combines base order, overlays, mode and limits into one list.
// It keeps no state: every call reads the store.
type Resolver struct {
	DB *gorm.DB
	// ScoreTieBreak orders points with equal AI order by descending relevance
	// score before falling back to id.
	ScoreTieBreak bool
}

func NewResolver(db *gorm.DB, scoreTieBreak bool) *Resolver {
	return &Resolver{DB: db, ScoreTieBreak: scoreTieBreak}
}

type jobRow struct {
	ID           uint
	Title        string
	Company      string
	Location     string
	StartDate    string
	EndDate      *string
	Current      bool
	DisplayOrder int
	AIOrder      *int `gorm:"column:ai_order"`
}

type pointRow struct {
	ID       uint
	JobID    uint
	Point    string
	OrderNum int
	AIOrder  *int     `gorm:"column:ai_order"`
	Score    *float64 `gorm:"column:score"`
}

// Resolve returns jobs in the requested order, each with its ordered,
// de-duplicated points. Truncation happens last.
func (r *Resolver) Resolve(ctx context.Context, req ViewRequest) ([]ResolvedJob, error) {
	if err := validateView(req); err != nil {
		return nil, err
	}
	db := r.DB.WithContext(ctx)

	jobs, err := r.loadJobs(db, req)
	if err != nil {
		return nil, err
	}
	points, err := r.loadPoints(db, req)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		oi, oj := effective(jobs[i].AIOrder, jobs[i].DisplayOrder), effective(jobs[j].AIOrder, jobs[j].DisplayOrder)
		if oi != oj {
			return oi < oj
		}
		return jobs[i].ID < jobs[j].ID
	})
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		oa, ob := effective(a.AIOrder, a.OrderNum), effective(b.AIOrder, b.OrderNum)
		if oa != ob {
			return oa < ob
		}
		if r.ScoreTieBreak {
			sa, sb := scoreOf(a.Score), scoreOf(b.Score)
			if sa != sb {
				return sa > sb
			}
		}
		return a.ID < b.ID
	})

	byJob := make(map[uint][]ResolvedPoint)
	seenPoint := make(map[uint]bool, len(points))
	for _, p := range points {
		if seenPoint[p.ID] {
			continue
		}
		seenPoint[p.ID] = true
		byJob[p.JobID] = append(byJob[p.JobID], ResolvedPoint{
			ID:    p.ID,
			JobID: p.JobID,
			Text:  p.Point,
			Order: effective(p.AIOrder, p.OrderNum),
			Score: p.Score,
		})
	}

	out := make([]ResolvedJob, 0, len(jobs))
	seenJob := make(map[uint]bool, len(jobs))
	for _, j := range jobs {
		if seenJob[j.ID] {
			continue
		}
		seenJob[j.ID] = true
		out = append(out, ResolvedJob{
			ID:        j.ID,
			Title:     j.Title,
			Company:   j.Company,
			Location:  j.Location,
			StartDate: j.StartDate,
			EndDate:   j.EndDate,
			Current:   j.Current,
			Dates:     FormatDates(j.StartDate, j.EndDate, j.Current),
			Order:     effective(j.AIOrder, j.DisplayOrder),
			Points:    limitPoints(byJob[j.ID], req.LimitPointsPerJob),
		})
	}

	if req.LimitJobs != nil && *req.LimitJobs < len(out) {
		out = out[:*req.LimitJobs]
	}
	return out, nil
}

func (r *Resolver) loadJobs(db *gorm.DB, req ViewRequest) ([]jobRow, error) {
	var rows []jobRow
	q := db.Table("jobs AS j")
	if req.Mode == ModeAI {
		q = q.Select("j.id, j.title, j.company, j.location, j.start_date, j.end_date, j.current, j.display_order, o.ai_display_order AS ai_order").
			Joins("LEFT JOIN ai_job_orders AS o ON o.job_id = j.id AND o.model_type = ?", req.Model.String())
	} else {
		q = q.Select("j.id, j.title, j.company, j.location, j.start_date, j.end_date, j.current, j.display_order")
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}
	return rows, nil
}

// loadPoints joins the point overlay by point id. Duplicate overlay rows make
// this join return a point more than once; Resolve keeps the first.
func (r *Resolver) loadPoints(db *gorm.DB, req ViewRequest) ([]pointRow, error) {
	var rows []pointRow
	q := db.Table("job_points AS p").Joins("JOIN jobs AS j ON j.id = p.job_id")
	if req.Mode == ModeAI {
		q = q.Select("p.id, p.job_id, p.point, p.order_num, o.ai_order_num AS ai_order, o.relevance_score AS score").
			Joins("LEFT JOIN ai_point_orders AS o ON o.point_id = p.id AND o.model_type = ?", req.Model.String())
	} else {
		q = q.Select("p.id, p.job_id, p.point, p.order_num")
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}
	return rows, nil
}

// WithPreview fills ResumePoints with the first n point texts of every job.
func WithPreview(jobs []ResolvedJob, n int) []ResolvedJob {
	if n <= 0 {
		return jobs
	}
	for i := range jobs {
		pts := jobs[i].Points
		if len(pts) > n {
			pts = pts[:n]
		}
		preview := make([]string, 0, len(pts))
		for _, p := range pts {
			preview = append(preview, p.Text)
		}
		jobs[i].ResumePoints = preview
	}
	return jobs
}

func validateView(req ViewRequest) error {
	switch req.Mode {
	case ModeManual:
	case ModeAI:
		if req.Model == "" {
			return newError(ErrInvalidInput, "ai mode needs a model type")
		}
	default:
		return newError(ErrInvalidInput, "unknown view mode %q", req.Mode)
	}
	if req.LimitJobs != nil && *req.LimitJobs < 0 {
		return newError(ErrInvalidInput, "limit_jobs must not be negative")
	}
	if req.LimitPointsPerJob != nil && *req.LimitPointsPerJob < 0 {
		return newError(ErrInvalidInput, "limit_points must not be negative")
	}
	return nil
}

func limitPoints(points []ResolvedPoint, limit *int) []ResolvedPoint {
	if points == nil {
		points = []ResolvedPoint{}
	}
	if limit != nil && *limit < len(points) {
		return points[:*limit]
	}
	return points
}

func effective(override *int, base int) int {
	if override != nil {
		return *override
	}
	return base
}

// scoreOf ranks points without a score below every scored point.
func scoreOf(s *float64) float64 {
	if s == nil {
		return -1
	}
	return *s
}
