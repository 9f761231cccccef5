package models

import (
	"fmt"
	"strings"
	"time"

	"natours/db"
	"natours/utils"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultRatingsAverage = 4.5

func init() {
	// prices are plain JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type Tour struct {
	ID              uint64           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time        `gorm:"index" json:"-"`
	UpdatedAt       time.Time        `json:"-"`
	Name            string           `gorm:"type:varchar(40);uniqueIndex;not null" json:"name" validate:"required,min=10,max=40"`
	Slug            string           `gorm:"type:varchar(100);uniqueIndex" json:"slug"`
	Duration        int              `gorm:"not null" json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int              `gorm:"not null" json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      Difficulty       `gorm:"type:varchar(20);not null" json:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64          `gorm:"not null" json:"ratingsAverage" validate:"gte=1,lte=5"`
	RatingsQuantity int              `gorm:"not null" json:"ratingsQuantity" validate:"gte=0"`
	Price           decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"price"`
	PriceDiscount   *decimal.Decimal `gorm:"type:decimal(10,2)" json:"priceDiscount,omitempty"`
	Summary         string           `gorm:"type:varchar(255);not null" json:"summary" validate:"required"`
	Description     string           `gorm:"type:text" json:"description,omitempty"`
	ImageCover      string           `gorm:"type:varchar(255);not null" json:"imageCover" validate:"required"`
	Images          []string         `gorm:"serializer:json" json:"images"`
	StartDates      []time.Time      `gorm:"serializer:json" json:"startDates"`
	SecretTour      bool             `gorm:"not null" json:"secretTour"`
	StartLocation   Location         `gorm:"embedded;embeddedPrefix:start_" json:"startLocation"`
	Locations       []Location       `gorm:"serializer:json" json:"locations"`
	Guides          []User           `gorm:"many2many:tour_guides;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"guides,omitempty"`
	Reviews         []Review         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"reviews,omitempty"`

	// GuideIDs replaces the guides when sent on create or update
	GuideIDs      []uint64 `gorm:"-" json:"guideIds,omitempty"`
	DurationWeeks float64  `gorm:"-" json:"durationWeeks"`
}

func (t *Tour) SetDefaults() {
	t.RatingsAverage = DefaultRatingsAverage
}

func (t *Tour) Validate() error {
	var extra []string
	if !t.Price.IsPositive() {
		extra = append(extra, "A tour must have a price")
	}
	if t.PriceDiscount != nil && !t.PriceDiscount.LessThan(t.Price) {
		extra = append(extra, fmt.Sprintf("Discount price (%s) should be below regular price", t.PriceDiscount))
	}
	if t.StartLocation.Valid() && t.StartLocation.Type == "" {
		t.StartLocation.Type = PointType
	}
	return ValidateStruct(t, extra...)
}

func (t *Tour) BeforeSave(tx *gorm.DB) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.Slug = slug.Make(t.Name)
	t.RatingsAverage = utils.Round(t.RatingsAverage, 1)
	for i := range t.Locations {
		if t.Locations[i].Type == "" {
			t.Locations[i].Type = PointType
		}
	}
	return nil
}

func (t *Tour) AfterSave(tx *gorm.DB) error {
	if t.GuideIDs == nil {
		return nil
	}
	ids := t.GuideIDs
	t.GuideIDs = nil
	guides := []User{}
	if len(ids) > 0 {
		if err := tx.Session(&gorm.Session{NewDB: true}).
			Where("id IN ? AND role IN ?", ids, []Role{RoleGuide, RoleLeadGuide}).
			Find(&guides).Error; err != nil {
			return err
		}
	}
	return tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).Model(t).Association("Guides").Replace(guides)
}

func (t *Tour) AfterFind(tx *gorm.DB) error {
	t.DurationWeeks = float64(t.Duration) / 7
	return nil
}

func TourBySlug(slug string) (t Tour, err error) {
	err = db.Instance.
		Preload("Reviews", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at DESC") }).
		Preload("Reviews.User", SelectUserSummary).
		Preload("Guides", SelectGuideSummary).
		Where("slug = ?", slug).First(&t).Error
	return
}

// SelectUserSummary limits a populated user to what reviews show
func SelectUserSummary(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "name", "photo")
}

// SelectGuideSummary limits a populated guide to its public profile
func SelectGuideSummary(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "name", "email", "photo", "role")
}
