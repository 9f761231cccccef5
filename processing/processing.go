// Package processing resizes uploaded images and enriches tours in the
// background with data derived from their start location.
package processing

import (
	"context"
	"time"

	"natours/config"
	"natours/db"
	"natours/locations"
	"natours/models"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

type enrichmentTask interface {
	getName() string
	shouldHandle(*models.Tour) bool
	process(context.Context, *models.Tour) int
}

// Geocoder turns coordinates into an address
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (*locations.NominatimLocation, error)
}

var (
	tasks = map[string]enrichmentTask{}
)

func registerTask(t enrichmentTask) {
	tasks[t.getName()] = t
}

// Init migrates the task table and registers the enrichment tasks. Reverse
// geocoding only runs when enabled and a geocoder is given.
func Init(cfg *config.Config, geocoder Geocoder) error {
	if err := db.Instance.AutoMigrate(&EnrichmentTask{}); err != nil {
		return err
	}
	tasks = map[string]enrichmentTask{}
	registerTask(&timezone{})
	if cfg.GeocodeEnabled && geocoder != nil {
		registerTask(&address{geocoder: geocoder})
	}
	return nil
}

// ProcessPending runs every task a tour has not been through yet, secret
// tours included. It returns the number of tours it touched.
func ProcessPending(ctx context.Context) (int, error) {
	var tours []models.Tour
	if err := models.IncludeHidden(db.Instance).Order("id").Find(&tours).Error; err != nil {
		return 0, err
	}
	var existing []EnrichmentTask
	if err := db.Instance.Find(&existing).Error; err != nil {
		return 0, err
	}
	statuses := make(map[uint64]*EnrichmentTask, len(existing))
	for i := range existing {
		statuses[existing[i].TourID] = &existing[i]
	}

	processed := 0
	for i := range tours {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		tour := &tours[i]
		current, ok := statuses[tour.ID]
		if !ok {
			current = &EnrichmentTask{TourID: tour.ID}
		}
		statusMap := current.statusToMap()
		changed := false
		for taskName, task := range tasks {
			if _, ok := statusMap[taskName]; ok {
				// one try for each task
				continue
			}
			changed = true
			if !task.shouldHandle(tour) {
				statusMap[taskName] = Skipped
				continue
			}
			start := time.Now()
			statusMap[taskName] = task.process(ctx, tour)
			zap.L().Info("enrichment task",
				zap.String("task", taskName),
				zap.Uint64("tour_id", tour.ID),
				zap.Int("result", statusMap[taskName]),
				zap.Duration("time", time.Since(start)),
			)
		}
		if !changed {
			continue
		}
		current.updateWith(statusMap)
		if err := db.Instance.Omit(clause.Associations).Save(current).Error; err != nil {
			zap.L().Error("saving enrichment status", zap.Uint64("tour_id", tour.ID), zap.Error(err))
			continue
		}
		processed++
	}
	return processed, nil
}

// Reset makes every task run again for the tour, e.g. after its start
// location moved.
func Reset(tourID uint64) error {
	return db.Instance.Where("tour_id = ?", tourID).Delete(&EnrichmentTask{}).Error
}

func updateStartLocation(tourID uint64, column string, value string) error {
	return db.Instance.Model(&models.Tour{}).Where("id = ?", tourID).UpdateColumn(column, value).Error
}
