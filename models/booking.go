package models

import (
	"time"

	"natours/db"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Booking struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"-"`
	TourID    uint64          `gorm:"not null;index" json:"tourId" validate:"required"`
	Tour      *Tour           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"tour,omitempty"`
	UserID    uint64          `gorm:"not null;index" json:"userId" validate:"required"`
	User      *User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Paid      bool            `gorm:"not null" json:"paid"`
	SessionID *string         `gorm:"type:varchar(255);uniqueIndex" json:"-"` // checkout session that created it
}

func (b *Booking) SetDefaults() {
	b.Paid = true
}

func (b *Booking) Validate() error {
	var extra []string
	if !b.Price.IsPositive() {
		extra = append(extra, "Booking must have a price.")
	}
	return ValidateStruct(b, extra...)
}

// PopulateBooking loads the user and the tour name
func PopulateBooking(tx *gorm.DB) *gorm.DB {
	return tx.Preload("User", SelectGuideSummary).
		Preload("Tour", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name", "slug") })
}

// CreateBookingFromCheckout stores the booking of a completed checkout once,
// even when the payment provider delivers the event several times.
func CreateBookingFromCheckout(sessionID string, tourID uint64, email string, price decimal.Decimal) (*Booking, bool, error) {
	user, err := UserByEmail(email)
	if err != nil {
		return nil, false, err
	}
	var existing []Booking
	if err = db.Instance.Where("session_id = ?", sessionID).Limit(1).Find(&existing).Error; err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return &existing[0], false, nil
	}
	booking := Booking{
		TourID:    tourID,
		UserID:    user.ID,
		Price:     price,
		Paid:      true,
		SessionID: &sessionID,
	}
	if err = db.Instance.Create(&booking).Error; err != nil {
		return nil, false, err
	}
	return &booking, true, nil
}

// BookedTours returns the tours a user has booked
func BookedTours(userID uint64) (tours []Tour, err error) {
	var tourIDs []uint64
	if err = db.Instance.Model(&Booking{}).Where("user_id = ?", userID).Distinct().Pluck("tour_id", &tourIDs).Error; err != nil {
		return nil, err
	}
	if len(tourIDs) == 0 {
		return []Tour{}, nil
	}
	err = db.Instance.Where("id IN ?", tourIDs).Find(&tours).Error
	return
}
