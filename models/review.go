package models

import (
	"time"

	"natours/utils"

	"gorm.io/gorm"
)

type Review struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
	Review    string    `gorm:"type:text;not null" json:"review" validate:"required"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating" validate:"required,min=1,max=5"`
	TourID    uint64    `gorm:"not null;uniqueIndex:uniq_review_tour_user" json:"tour" validate:"required"`
	Tour      *Tour     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uniq_review_tour_user" json:"-" validate:"required"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
}

func (r *Review) Validate() error {
	return ValidateStruct(r)
}

func (r *Review) AfterCreate(tx *gorm.DB) error {
	return CalcAverageRatings(tx, r.TourID)
}

func (r *Review) AfterUpdate(tx *gorm.DB) error {
	return CalcAverageRatings(tx, r.TourID)
}

func (r *Review) AfterDelete(tx *gorm.DB) error {
	return CalcAverageRatings(tx, r.TourID)
}

// CalcAverageRatings stores the review count and the average rating on the
// tour. A tour without reviews goes back to the defaults.
func CalcAverageRatings(tx *gorm.DB, tourID uint64) error {
	if tourID == 0 {
		return nil
	}
	tx = tx.Session(&gorm.Session{NewDB: true})
	var stats struct {
		NRating   int64
		AvgRating float64
	}
	if err := tx.Model(&Review{}).
		Select("COUNT(*) AS n_rating, COALESCE(AVG(rating), 0) AS avg_rating").
		Where("tour_id = ?", tourID).
		Scan(&stats).Error; err != nil {
		return err
	}
	quantity, average := stats.NRating, utils.Round(stats.AvgRating, 1)
	if quantity == 0 {
		average = DefaultRatingsAverage
	}
	return tx.Model(&Tour{}).Where("id = ?", tourID).UpdateColumns(map[string]interface{}{
		"ratings_quantity": quantity,
		"ratings_average":  average,
	}).Error
}
