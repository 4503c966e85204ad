package db

import (
	"github.com/alphastore-tech/dashboard-backend/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.DailyNav{},
		&models.RealizedPnl{},
		&models.PortfolioRecord{},
		&models.KISRawSnapshot{},
	)
}
