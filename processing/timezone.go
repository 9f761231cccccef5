package processing

import (
	"context"
	"time"

	"natours/models"

	"github.com/zsefvlol/timezonemapper"
	"go.uber.org/zap"
)

type timezone struct{}

func (t *timezone) getName() string {
	return "timezone"
}

func (t *timezone) shouldHandle(tour *models.Tour) bool {
	return tour.StartLocation.Valid() && tour.StartLocation.Timezone == ""
}

func (t *timezone) process(_ context.Context, tour *models.Tour) int {
	zone := timezonemapper.LatLngToTimezoneString(tour.StartLocation.Lat(), tour.StartLocation.Lng())
	if _, err := time.LoadLocation(zone); zone == "" || err != nil {
		zap.L().Warn("no timezone found", zap.Uint64("tour_id", tour.ID), zap.String("zone", zone))
		return Failed
	}
	if err := updateStartLocation(tour.ID, "start_timezone", zone); err != nil {
		zap.L().Error("saving timezone", zap.Uint64("tour_id", tour.ID), zap.Error(err))
		return FailedDB
	}
	tour.StartLocation.Timezone = zone
	return Done
}
