package models

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	includeHiddenKey   = "natours:include_hidden"
	visibilityCallback = "natours:visibility"
)

// ActiveUsers hides deactivated accounts
func ActiveUsers(tx *gorm.DB) *gorm.DB {
	return tx.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "active"}, Value: true})
}

// PublicTours hides secret tours
func PublicTours(tx *gorm.DB) *gorm.DB {
	return tx.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "secret_tour"}, Value: false})
}

// IncludeHidden disables the visibility rules for one query
func IncludeHidden(tx *gorm.DB) *gorm.DB {
	return tx.Set(includeHiddenKey, true)
}

// registerVisibility applies ActiveUsers and PublicTours to every query on
// users and tours, preloads and aggregates included.
func registerVisibility(db *gorm.DB) error {
	if db.Callback().Query().Get(visibilityCallback) != nil {
		return nil
	}
	return db.Callback().Query().Before("gorm:query").Register(visibilityCallback, func(tx *gorm.DB) {
		if tx.Statement.Schema == nil {
			return
		}
		if _, ok := tx.Get(includeHiddenKey); ok {
			return
		}
		// the statement is shared inside callbacks, so scopes add to it
		switch tx.Statement.Schema.Table {
		case "users":
			ActiveUsers(tx)
		case "tours":
			PublicTours(tx)
		}
	})
}
