package processing

import (
	"context"

	"natours/db"
	"natours/models"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

// address fills in a missing start address by reverse geocoding
type address struct {
	geocoder Geocoder
}

func (a *address) getName() string {
	return "address"
}

func (a *address) shouldHandle(tour *models.Tour) bool {
	return tour.StartLocation.Valid() && tour.StartLocation.Address == ""
}

func (a *address) process(ctx context.Context, tour *models.Tour) int {
	lat, lng := tour.StartLocation.Lat(), tour.StartLocation.Lng()
	// Try first local DB
	place := models.NewGeoPlace(lat, lng)
	var cached []models.GeoPlace
	if err := db.Instance.Where("gps_lat = ? AND gps_long = ?", place.GpsLat, place.GpsLong).Limit(1).Find(&cached).Error; err != nil {
		return FailedDB
	}
	if len(cached) > 0 {
		place = cached[0]
	} else {
		nominatim, err := a.geocoder.Reverse(ctx, lat, lng)
		if err != nil {
			zap.L().Warn("no location found", zap.Uint64("tour_id", tour.ID), zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
			return Failed
		}
		place = nominatim.Place(lat, lng)
		if err = db.Instance.Clauses(clause.OnConflict{DoNothing: true}).Create(&place).Error; err != nil {
			zap.L().Error("caching location", zap.Error(err))
			return FailedDB
		}
	}
	display := place.Address()
	if display == "" {
		return Failed
	}
	if err := updateStartLocation(tour.ID, "start_address", display); err != nil {
		return FailedDB
	}
	tour.StartLocation.Address = display
	return Done
}
