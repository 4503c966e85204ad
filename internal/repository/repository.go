package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/alphastore-tech/dashboard-backend/internal/models"
)

// Repository owns every dated table the pipelines write. All Upsert methods
// are insert-or-replace on the row's natural key: conflicting writes replace
// every non-key column, so re-running a pipeline for a day it already loaded
// converges instead of duplicating.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Daily NAV, keyed by trade date.
	UpsertDailyNav(ctx context.Context, item *models.DailyNav) error
	GetDailyNav(ctx context.Context, tradeDate time.Time) (*models.DailyNav, error)
	ListDailyNav(ctx context.Context, start, end time.Time) ([]models.DailyNav, error)

	// Realized PnL, keyed by (account_no, trad_dt). Batch writes are one
	// transaction: either all rows land or none do.
	UpsertRealizedPnlRows(ctx context.Context, items []models.RealizedPnl) error
	ListRealizedPnl(ctx context.Context, accountNo, startYMD, endYMD string) ([]models.RealizedPnl, error)

	// Portfolio records, keyed by (date, account_type, account_no).
	UpsertPortfolioRecord(ctx context.Context, item *models.PortfolioRecord) error
	GetPortfolioRecord(ctx context.Context, date time.Time, accountType, accountNo string) (*models.PortfolioRecord, error)
	DeletePortfolioRecord(ctx context.Context, date time.Time, accountType, accountNo string) (int64, error)

	// Raw upstream archive, append-only.
	InsertRawSnapshot(ctx context.Context, item *models.KISRawSnapshot) error
}
