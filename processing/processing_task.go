package processing

import (
	"sort"
	"strconv"
	"strings"

	"natours/models"

	"go.uber.org/zap"
)

const (
	Skipped  = 0
	Done     = 2
	Failed   = 3
	FailedDB = 5
)

// EnrichmentTask remembers which enrichment tasks ran for a tour
type EnrichmentTask struct {
	TourID uint64      `gorm:"primaryKey;autoIncrement:false"`
	Tour   models.Tour `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Status string      `gorm:"type:varchar(1024)"` // Contains comma-separated pairs of task and status, e.g. "timezone:2,address:3"
}

func (pt *EnrichmentTask) statusToMap() map[string]int {
	result := map[string]int{}
	if pt.Status == "" {
		return result
	}
	for _, v := range strings.Split(pt.Status, ",") {
		current := strings.Split(v, ":")
		if len(current) != 2 {
			zap.L().Warn("enrichment status contains invalid chars", zap.Uint64("tour_id", pt.TourID), zap.String("status", pt.Status))
			continue
		}
		result[current[0]], _ = strconv.Atoi(current[1])
	}
	return result
}

func (pt *EnrichmentTask) updateWith(statusMap map[string]int) {
	result := []string{}
	for k, v := range statusMap {
		result = append(result, k+":"+strconv.Itoa(v))
	}
	sort.Strings(result)
	pt.Status = strings.Join(result, ",")
}
