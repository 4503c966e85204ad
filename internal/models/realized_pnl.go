package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RealizedPnl is one day of closed-trade aggregates for one account, as
// reported by the brokerage period-profit endpoint. Column names keep the
// upstream abbreviations so rows stay diffable against the raw API payload.
//
// Numeric fields are nullable: the upstream sends numbers as strings and a
// value that fails to parse is stored as NULL rather than dropped.
type RealizedPnl struct {
	AccountNo string `gorm:"type:varchar(30);primaryKey" json:"account_no"`
	TradDt    string `gorm:"type:varchar(8);primaryKey" json:"trad_dt"`

	BuyAmt   decimal.NullDecimal `gorm:"type:numeric(15,2)" json:"buy_amt"`
	SllAmt   decimal.NullDecimal `gorm:"type:numeric(15,2)" json:"sll_amt"`
	RlztPfls decimal.NullDecimal `gorm:"type:numeric(15,2)" json:"rlzt_pfls"`
	Fee      decimal.NullDecimal `gorm:"type:numeric(15,2)" json:"fee"`
	LoanInt  decimal.NullDecimal `gorm:"type:numeric(15,2)" json:"loan_int"`
	TlTax    decimal.NullDecimal `gorm:"type:numeric(15,2)" json:"tl_tax"`
	PflsRt   decimal.NullDecimal `gorm:"type:numeric(10,4)" json:"pfls_rt"`
	SllQty1  decimal.NullDecimal `gorm:"type:numeric(15,0)" json:"sll_qty1"`
	BuyQty1  decimal.NullDecimal `gorm:"type:numeric(15,0)" json:"buy_qty1"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (RealizedPnl) TableName() string {
	return "realized_pnl"
}
