package models

import (
	"testing"

	"natours/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateBookingFromCheckout(t *testing.T) {
	setupDB(t)
	tour := createTour(t, "The Northern Lights", 1497)
	user := createUser(t, "Buyer Person", "buyer@example.com", RoleUser)

	booking, created, err := CreateBookingFromCheckout("cs_test_1", tour.ID, "BUYER@example.com", decimal.NewFromInt(1497))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, user.ID, booking.UserID)
	assert.True(t, booking.Paid)

	again, created, err := CreateBookingFromCheckout("cs_test_1", tour.ID, "buyer@example.com", decimal.NewFromInt(1497))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, booking.ID, again.ID)

	_, _, err = CreateBookingFromCheckout("cs_test_2", tour.ID, "nobody@example.com", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Instance.Model(&Booking{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var loaded Booking
	require.NoError(t, PopulateBooking(db.Instance).First(&loaded, booking.ID).Error)
	require.NotNil(t, loaded.User)
	require.NotNil(t, loaded.Tour)
	assert.Equal(t, "Buyer Person", loaded.User.Name)
	assert.Equal(t, "The Northern Lights", loaded.Tour.Name)
}

func TestBookedTours(t *testing.T) {
	setupDB(t)
	first := createTour(t, "The Northern Lights", 1497)
	createTour(t, "The Forest Hiker", 397)
	user := createUser(t, "Buyer Person", "buyer@example.com", RoleUser)

	tours, err := BookedTours(user.ID)
	require.NoError(t, err)
	assert.Empty(t, tours)

	for i := 0; i < 2; i++ {
		b := &Booking{TourID: first.ID, UserID: user.ID, Price: first.Price}
		b.SetDefaults()
		require.NoError(t, b.Validate())
		require.NoError(t, db.Instance.Create(b).Error)
	}
	tours, err = BookedTours(user.ID)
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, first.ID, tours[0].ID)
}

func TestBookingValidate(t *testing.T) {
	b := &Booking{TourID: 1, UserID: 1}
	err := b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Booking must have a price.")
}
