package kis

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountSnapshot is one fetch of an account's current valuation. It lives
// only for the duration of a pipeline run and is discarded after
// aggregation.
type AccountSnapshot struct {
	EndingEquity  decimal.Decimal
	UnrealizedPnl decimal.Decimal
	CashBalance   decimal.Decimal
}

// RealizedPnlRow is one trading day of closed-trade aggregates. All numeric
// fields arrive as strings from upstream; values that fail to parse carry
// the null sentinel instead of aborting the fetch.
type RealizedPnlRow struct {
	TradDt   string
	BuyAmt   decimal.NullDecimal
	SllAmt   decimal.NullDecimal
	RlztPfls decimal.NullDecimal
	Fee      decimal.NullDecimal
	LoanInt  decimal.NullDecimal
	TlTax    decimal.NullDecimal
	PflsRt   decimal.NullDecimal
	SllQty1  decimal.NullDecimal
	BuyQty1  decimal.NullDecimal
}

// RealizedPnlSummary mirrors the output2 totals block of the period-profit
// endpoint.
type RealizedPnlSummary struct {
	TotRlztPfls decimal.NullDecimal
	TotFee      decimal.NullDecimal
	TotTltx     decimal.NullDecimal
	LoanInt     decimal.NullDecimal
}

// RealizedPnlResult is never nil-listed: an empty upstream output1 yields an
// empty (not nil) Rows slice.
type RealizedPnlResult struct {
	Rows    []RealizedPnlRow
	Summary RealizedPnlSummary
}

// mustDecimal parses an upstream numeric string strictly. Used for the
// balance fields the aggregator cannot work without.
func mustDecimal(raw, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, &APIError{MsgCd: "DECODE", Msg: "non-numeric " + field + ": " + raw}
	}
	return d, nil
}

// toNullDecimal coerces leniently: blank or unparseable input becomes the
// null sentinel so partial upstream data does not fail the whole fetch.
func toNullDecimal(raw string) decimal.NullDecimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
