package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyNav is the combined spot+futures account valuation for one trading
// day. One row per trade date; re-running the pipeline for the same day
// replaces the row.
type DailyNav struct {
	TradeDate time.Time `gorm:"type:date;primaryKey" json:"trade_date"`

	SpotNav           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"spot_nav"`
	FuturesNav        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"futures_nav"`
	TotalNav          decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"total_nav"`
	SpotUnrealized    decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"spot_unrealized"`
	FuturesUnrealized decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"futures_unrealized"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (DailyNav) TableName() string {
	return "daily_nav"
}
