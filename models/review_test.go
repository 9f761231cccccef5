package models

import (
	"testing"

	"natours/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRatings(t *testing.T) {
	setupDB(t)
	tour := createTour(t, "The Park Camper", 1497)
	alice := createUser(t, "Alice Reviewer", "alice@example.com", RoleUser)
	bob := createUser(t, "Bob Reviewer", "bob@example.com", RoleUser)

	ratings := func() (int, float64) {
		var loaded Tour
		require.NoError(t, db.Instance.First(&loaded, tour.ID).Error)
		return loaded.RatingsQuantity, loaded.RatingsAverage
	}

	first := &Review{Review: "Great!", Rating: 5, TourID: tour.ID, UserID: alice.ID}
	require.NoError(t, first.Validate())
	require.NoError(t, db.Instance.Create(first).Error)
	second := &Review{Review: "Meh", Rating: 2, TourID: tour.ID, UserID: bob.ID}
	require.NoError(t, db.Instance.Create(second).Error)

	quantity, average := ratings()
	assert.Equal(t, 2, quantity)
	assert.Equal(t, 3.5, average)

	second.Rating = 4
	require.NoError(t, db.Instance.Save(second).Error)
	_, average = ratings()
	assert.Equal(t, 4.5, average)

	require.NoError(t, db.Instance.Delete(first).Error)
	quantity, average = ratings()
	assert.Equal(t, 1, quantity)
	assert.Equal(t, 4.0, average)

	require.NoError(t, db.Instance.Delete(second).Error)
	quantity, average = ratings()
	assert.Equal(t, 0, quantity)
	assert.Equal(t, DefaultRatingsAverage, average)
}

func TestReviewOnePerUserAndTour(t *testing.T) {
	setupDB(t)
	tour := createTour(t, "The Wine Taster", 1997)
	alice := createUser(t, "Alice Reviewer", "alice@example.com", RoleUser)

	require.NoError(t, db.Instance.Create(&Review{Review: "Lovely", Rating: 5, TourID: tour.ID, UserID: alice.ID}).Error)
	err := db.Instance.Create(&Review{Review: "Again", Rating: 4, TourID: tour.ID, UserID: alice.ID}).Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

func TestReviewValidate(t *testing.T) {
	tests := []struct {
		name     string
		review   Review
		contains string
	}{
		{"valid", Review{Review: "ok", Rating: 3, TourID: 1, UserID: 1}, ""},
		{"empty", Review{Rating: 3, TourID: 1, UserID: 1}, "review is required"},
		{"rating too high", Review{Review: "ok", Rating: 6, TourID: 1, UserID: 1}, "rating must be below or equal to 5"},
		{"no tour", Review{Review: "ok", Rating: 3, UserID: 1}, "tour is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.review.Validate()
			if tt.contains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestReviewPopulatesUserSummary(t *testing.T) {
	setupDB(t)
	tour := createTour(t, "The City Wanderer", 1197)
	alice := createUser(t, "Alice Reviewer", "alice@example.com", RoleUser)
	require.NoError(t, db.Instance.Create(&Review{Review: "Lovely", Rating: 5, TourID: tour.ID, UserID: alice.ID}).Error)

	var reviews []Review
	require.NoError(t, db.Instance.Preload("User", SelectUserSummary).Find(&reviews).Error)
	require.Len(t, reviews, 1)
	require.NotNil(t, reviews[0].User)
	assert.Equal(t, "Alice Reviewer", reviews[0].User.Name)
	assert.Empty(t, reviews[0].User.Email)
}
