package models

import (
	"os"
	"testing"
	"time"

	"natours/db"
	"natours/db/dbtest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func setupDB(t *testing.T) {
	t.Helper()
	dbtest.Setup(t)
	require.NoError(t, Init())
}

func createUser(t *testing.T, name, email string, role Role) *User {
	t.Helper()
	u := &User{Name: name, Email: email}
	u.SetDefaults()
	u.Role = role
	require.NoError(t, u.SetPassword("pass1234"))
	require.NoError(t, db.Instance.Create(u).Error)
	return u
}

func newTour(name string, price int64) *Tour {
	t := &Tour{
		Name:         name,
		Duration:     7,
		MaxGroupSize: 10,
		Difficulty:   DifficultyEasy,
		Price:        decimal.NewFromInt(price),
		Summary:      "A tour to remember",
		ImageCover:   "cover.jpg",
	}
	t.SetDefaults()
	return t
}

func createTour(t *testing.T, name string, price int64, mutate ...func(*Tour)) *Tour {
	t.Helper()
	tour := newTour(name, price)
	for _, m := range mutate {
		m(tour)
	}
	require.NoError(t, tour.Validate())
	require.NoError(t, db.Instance.Create(tour).Error)
	return tour
}

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
}
