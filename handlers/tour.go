package handlers

import (
	"mime/multipart"
	"strconv"

	"natours/errs"
	"natours/models"
	"natours/processing"
	"natours/query"
	"natours/storage"
	"natours/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	withinFormat    = "Please provide latitude, longitude, distance and unit in format /tours-within/:distance/center/:lat,lng/unit/:unit"
	distancesFormat = "Please provide latitude, longitude and unit in format /distances/:lat,lng/unit/:unit"
)

var tourFields = query.FieldMap{
	"createdAt":       {Column: "created_at", Kind: query.Time},
	"name":            {Column: "name"},
	"slug":            {Column: "slug"},
	"duration":        {Column: "duration", Kind: query.Number, Repeatable: true},
	"maxGroupSize":    {Column: "max_group_size", Kind: query.Number, Repeatable: true},
	"difficulty":      {Column: "difficulty", Repeatable: true},
	"ratingsAverage":  {Column: "ratings_average", Kind: query.Number, Repeatable: true},
	"ratingsQuantity": {Column: "ratings_quantity", Kind: query.Number, Repeatable: true},
	"price":           {Column: "price", Kind: query.Number, Repeatable: true},
	"priceDiscount":   {Column: "price_discount", Kind: query.Number},
	"summary":         {Column: "summary"},
	"imageCover":      {Column: "image_cover"},
}

// TourPollutionWhitelist may be repeated in query strings
var TourPollutionWhitelist = []string{"duration", "ratingsQuantity", "ratingsAverage", "maxGroupSize", "difficulty", "price"}

var Tours = &Resource[models.Tour, *models.Tour]{
	Singular: "tour",
	Plural:   "tours",
	Fields:   tourFields,
	OneScope: func(tx *gorm.DB) *gorm.DB {
		return tx.
			Preload("Reviews", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at DESC") }).
			Preload("Reviews.User", models.SelectUserSummary).
			Preload("Guides", models.SelectGuideSummary)
	},
	Prepare: prepareTour,
	Written: func(c *gin.Context, tour *models.Tour, b Body) {
		if b.has("startLocation") {
			if err := processing.Reset(tour.ID); err != nil {
				zap.L().Warn("resetting tour enrichment", zap.Uint64("tour_id", tour.ID), zap.Error(err))
			}
		}
	},
}

// prepareTour stores uploaded images and makes a new start location replace
// the stored one as a whole.
func prepareTour(c *gin.Context, tour *models.Tour, b Body) error {
	if b.has("startLocation") {
		tour.StartLocation = models.Location{}
	}
	if tour.ID == 0 || c.Request.MultipartForm == nil {
		return nil
	}
	form := c.Request.MultipartForm
	cover := form.File["imageCover"]
	images := form.File["images"]
	if len(cover) == 0 && len(images) == 0 {
		return nil
	}
	var coverHeader *multipart.FileHeader
	if len(cover) > 0 {
		coverHeader = cover[0]
	}
	saved, err := processing.SaveTourImages(c.Request.Context(), storage.Default(), tour.ID, coverHeader, images)
	if err != nil {
		return err
	}
	if saved.Cover != "" {
		b.set("imageCover", saved.Cover)
	}
	if len(saved.Images) > 0 {
		b.set("images", saved.Images)
	}
	return nil
}

// AliasTopTours presets the query of the five best and cheapest tours
func AliasTopTours(c *gin.Context) {
	values := c.Request.URL.Query()
	values.Set("limit", "5")
	values.Set("sort", "-ratingsAverage,price")
	values.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	c.Request.URL.RawQuery = values.Encode()
	c.Next()
}

func TourStats(c *gin.Context) {
	stats, err := models.GetTourStats()
	if err != nil {
		fail(c, err)
		return
	}
	sendData(c, gin.H{"stats": stats})
}

func MonthlyPlan(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		fail(c, errs.InvalidID("year", c.Param("year")))
		return
	}
	plan, err := models.GetMonthlyPlan(year)
	if err != nil {
		fail(c, err)
		return
	}
	sendData(c, gin.H{"plan": plan})
}

func validUnit(unit string) bool {
	return unit == models.UnitMiles || unit == models.UnitKilometers
}

// ToursWithin handles /tours-within/:distance/center/:latlng/unit/:unit
func ToursWithin(c *gin.Context) {
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	lat, lng, ok := utils.ParseLatLng(c.Param("latlng"))
	unit := c.Param("unit")
	if err != nil || distance <= 0 || !ok || !validUnit(unit) {
		fail(c, errs.BadRequest(withinFormat))
		return
	}
	tours, err := models.ToursWithin(lat, lng, distance, unit)
	if err != nil {
		fail(c, err)
		return
	}
	sendList(c, "data", tours, len(tours))
}

// Distances handles /distances/:latlng/unit/:unit
func Distances(c *gin.Context) {
	lat, lng, ok := utils.ParseLatLng(c.Param("latlng"))
	unit := c.Param("unit")
	if !ok || !validUnit(unit) {
		fail(c, errs.BadRequest(distancesFormat))
		return
	}
	distances, err := models.GetDistances(lat, lng, unit)
	if err != nil {
		fail(c, err)
		return
	}
	sendData(c, gin.H{"data": distances})
}

// tourImageURL is what the checkout page shows for a tour
func tourImageURL(c *gin.Context, tour *models.Tour) string {
	if tour.ImageCover == "" {
		return ""
	}
	u := storage.Default().URL(storage.TourImagePath(tour.ImageCover))
	return absoluteURL(c, u)
}
