package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioRecord is one account's valuation summary for one date,
// partitioned by (date, account_type, account_no).
type PortfolioRecord struct {
	RecordDate  time.Time `gorm:"type:date;primaryKey" json:"date"`
	AccountType string    `gorm:"type:varchar(10);primaryKey" json:"account_type"`
	AccountNo   string    `gorm:"type:varchar(30);primaryKey" json:"account_number"`

	Nav           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"nav"`
	Cash          decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"cash"`
	UnrealizedPnl decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"unrealized_pnl"`
	RealizedPnl   decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"realized_pnl"`
	NetCashflow   decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"net_cashflow"`
	Fee           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"fee"`

	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (PortfolioRecord) TableName() string {
	return "portfolio_records"
}
