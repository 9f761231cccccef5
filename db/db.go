package db

import (
	"context"
	"errors"

	"natours/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var Instance *gorm.DB

func Init(cfg *config.Config) error {
	var dialector gorm.Dialector
	switch {
	case cfg.MySQLDSN != "":
		dialector = mysql.Open(cfg.MySQLDSN)
	case cfg.PostgresDSN != "":
		dialector = postgres.Open(cfg.PostgresDSN)
	case cfg.SQLiteFile != "":
		dialector = sqlite.Open(cfg.SQLiteFile)
	default:
		return errors.New("no database configured")
	}
	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}
	db, err := Open(dialector, logger.Default.LogMode(logLevel))
	if err != nil {
		return err
	}
	Instance = db
	return nil
}

func Open(dialector gorm.Dialector, log logger.Interface) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 log,
	})
}

func Ping(ctx context.Context) error {
	if Instance == nil {
		return errors.New("database not initialised")
	}
	sqlDB, err := Instance.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
