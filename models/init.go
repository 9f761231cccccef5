package models

import (
	"natours/db"
)

// Init registers the visibility rules and migrates every entity
func Init() error {
	if err := registerVisibility(db.Instance); err != nil {
		return err
	}
	return db.Instance.AutoMigrate(
		&User{},
		&Tour{},
		&Review{},
		&Booking{},
		&GeoPlace{},
	)
}
