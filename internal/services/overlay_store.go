package services

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/justsurfingit/Resume-Journal/internal/models"
	"gorm.io/gorm"
)

// OverlayStore writes and inspects the per-model AI order overlays.
type OverlayStore struct {
	DB    *gorm.DB
	locks *KeyedMutex
}

func NewOverlayStore(db *gorm.DB, locks *KeyedMutex) *OverlayStore {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &OverlayStore{DB: db, locks: locks}
}

// OverlayWrite reports what a replacement stored.
type OverlayWrite struct {
	Generation    string `json:"generation"`
	JobRows       int    `json:"job_rows"`
	PointRows     int    `json:"point_rows"`
	SkippedJobs   int    `json:"skipped_jobs"`
	SkippedPoints int    `json:"skipped_points"`
}

// Replace swaps the whole overlay of model for ordering in one transaction.
// References to jobs or points that no longer exist, and points listed under
// a job that doesn't own them, are dropped. If nothing usable remains the
// transaction is rolled back with EMPTY_ORDERING and the old overlay stays.
func (s *OverlayStore) Replace(ctx context.Context, model models.ModelType, ordering ValidatedOrdering) (OverlayWrite, error) {
	unlock := s.locks.Lock(overlayKey(model.String()))
	defer unlock()

	write := OverlayWrite{Generation: uuid.New().String()}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owners, err := pointOwners(tx)
		if err != nil {
			return err
		}
		var jobIDs []uint
		if err := tx.Model(&models.Job{}).Pluck("id", &jobIDs).Error; err != nil {
			return fmt.Errorf("load job ids: %w", err)
		}
		knownJobs := make(map[uint]bool, len(jobIDs))
		for _, id := range jobIDs {
			knownJobs[id] = true
		}

		jobRows := make([]models.AIJobOrder, 0, len(ordering.JobOrder))
		for _, jobID := range sortedKeys(ordering.JobOrder) {
			if !knownJobs[jobID] {
				write.SkippedJobs++
				continue
			}
			jobRows = append(jobRows, models.AIJobOrder{
				JobID:          jobID,
				AIDisplayOrder: ordering.JobOrder[jobID],
				ModelType:      model.String(),
				Generation:     write.Generation,
			})
		}

		var pointRows []models.AIPointOrder
		for _, jobID := range sortedKeys(ordering.PointOrders) {
			ranks := ordering.PointOrders[jobID]
			keys := make([]string, 0, len(ranks))
			for k := range ranks {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, key := range keys {
				pointID, err := parseID(key)
				if err != nil {
					write.SkippedPoints++
					continue
				}
				if owner, ok := owners[pointID]; !ok || owner != jobID {
					write.SkippedPoints++
					continue
				}
				pointRows = append(pointRows, models.AIPointOrder{
					JobID:          jobID,
					PointID:        pointID,
					AIOrderNum:     ranks[key].Order,
					RelevanceScore: ranks[key].Score,
					ModelType:      model.String(),
					Generation:     write.Generation,
				})
			}
		}

		if len(jobRows) == 0 || len(pointRows) == 0 {
			return newError(ErrEmptyOrdering, "suggestion for %s references no existing jobs or points", model)
		}

		if err := tx.Where("model_type = ?", model.String()).Delete(&models.AIPointOrder{}).Error; err != nil {
			return fmt.Errorf("clear point overlay: %w", err)
		}
		if err := tx.Where("model_type = ?", model.String()).Delete(&models.AIJobOrder{}).Error; err != nil {
			return fmt.Errorf("clear job overlay: %w", err)
		}
		if err := tx.CreateInBatches(jobRows, 100).Error; err != nil {
			return fmt.Errorf("insert job overlay: %w", err)
		}
		if err := tx.CreateInBatches(pointRows, 100).Error; err != nil {
			return fmt.Errorf("insert point overlay: %w", err)
		}
		write.JobRows = len(jobRows)
		write.PointRows = len(pointRows)
		return nil
	})
	if err != nil {
		return OverlayWrite{}, err
	}

	if write.SkippedJobs > 0 || write.SkippedPoints > 0 {
		log.Printf("[overlay:%s] ⚠️ skipped %d unknown jobs and %d unknown points", model, write.SkippedJobs, write.SkippedPoints)
	}
	log.Printf("[overlay:%s] ✅ stored generation %s (%d jobs, %d points)", model, write.Generation, write.JobRows, write.PointRows)
	return write, nil
}

// Clear drops the overlay of model and returns how many rows were removed.
func (s *OverlayStore) Clear(ctx context.Context, model models.ModelType) (int64, error) {
	unlock := s.locks.Lock(overlayKey(model.String()))
	defer unlock()

	var removed int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("model_type = ?", model.String()).Delete(&models.AIPointOrder{})
		if res.Error != nil {
			return res.Error
		}
		removed += res.RowsAffected
		res = tx.Where("model_type = ?", model.String()).Delete(&models.AIJobOrder{})
		if res.Error != nil {
			return res.Error
		}
		removed += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear overlay %s: %w", model, err)
	}
	return removed, nil
}

// OverlaySummary describes the stored overlay of one model.
type OverlaySummary struct {
	Model       models.ModelType `json:"model_type"`
	Generations []string         `json:"generations"`
	JobRows     int64            `json:"job_rows"`
	PointRows   int64            `json:"point_rows"`
}

// Summary reads the overlay of model. A healthy overlay has at most one generation.
func (s *OverlayStore) Summary(ctx context.Context, model models.ModelType) (OverlaySummary, error) {
	sum := OverlaySummary{Model: model, Generations: []string{}}
	db := s.DB.WithContext(ctx)

	if err := db.Model(&models.AIJobOrder{}).Where("model_type = ?", model.String()).Count(&sum.JobRows).Error; err != nil {
		return sum, fmt.Errorf("count job overlay: %w", err)
	}
	if err := db.Model(&models.AIPointOrder{}).Where("model_type = ?", model.String()).Count(&sum.PointRows).Error; err != nil {
		return sum, fmt.Errorf("count point overlay: %w", err)
	}

	var jobGens, pointGens []string
	if err := db.Model(&models.AIJobOrder{}).Where("model_type = ?", model.String()).Distinct().Pluck("generation", &jobGens).Error; err != nil {
		return sum, fmt.Errorf("job overlay generations: %w", err)
	}
	if err := db.Model(&models.AIPointOrder{}).Where("model_type = ?", model.String()).Distinct().Pluck("generation", &pointGens).Error; err != nil {
		return sum, fmt.Errorf("point overlay generations: %w", err)
	}
	seen := map[string]bool{}
	for _, g := range append(jobGens, pointGens...) {
		if !seen[g] {
			seen[g] = true
			sum.Generations = append(sum.Generations, g)
		}
	}
	sort.Strings(sum.Generations)
	return sum, nil
}

// pointOwners maps every point id to its job id.
func pointOwners(tx *gorm.DB) (map[uint]uint, error) {
	var rows []struct {
		ID    uint
		JobID uint
	}
	if err := tx.Model(&models.JobPoint{}).Select("id, job_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load point owners: %w", err)
	}
	owners := make(map[uint]uint, len(rows))
	for _, r := range rows {
		owners[r.ID] = r.JobID
	}
	return owners, nil
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
