package handlers

import (
	"natours/auth"
	"natours/models"
	"natours/query"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var reviewFields = query.FieldMap{
	"createdAt": {Column: "created_at", Kind: query.Time},
	"rating":    {Column: "rating", Kind: query.Number, Repeatable: true},
	"review":    {Column: "review"},
	"tour":      {Column: "tour_id", Kind: query.Number},
}

func withReviewAuthor(tx *gorm.DB) *gorm.DB {
	return tx.Preload("User", models.SelectUserSummary)
}

// Reviews serves /reviews and the nested /tours/:id/reviews
var Reviews = &Resource[models.Review, *models.Review]{
	Singular:     "review",
	Plural:       "reviews",
	Fields:       reviewFields,
	NestedParam:  "id",
	NestedColumn: "tour_id",
	ListScope:    withReviewAuthor,
	OneScope:     withReviewAuthor,
	Complete:     completeReview,
}

// completeReview takes the tour from the nested route and the author from
// the caller when the body does not name them.
func completeReview(c *gin.Context, r *models.Review) error {
	if r.TourID == 0 && c.Param("id") != "" {
		tourID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		r.TourID = tourID
	}
	if r.UserID == 0 {
		if user := auth.CurrentUser(c); user != nil {
			r.UserID = user.ID
		}
	}
	return nil
}
