// Package nav combines per-account balance snapshots into the daily
// combined-NAV record.
package nav

import (
	"time"

	"github.com/alphastore-tech/dashboard-backend/internal/client/kis"
	"github.com/alphastore-tech/dashboard-backend/internal/models"
)

// Aggregate folds one spot and one futures snapshot into a DailyNav row for
// tradeDate. Pure: both snapshots must already be fetched and validated;
// there is no partial mode.
func Aggregate(tradeDate time.Time, spot, futures kis.AccountSnapshot) models.DailyNav {
	return models.DailyNav{
		TradeDate:         tradeDate,
		SpotNav:           spot.EndingEquity,
		FuturesNav:        futures.EndingEquity,
		TotalNav:          spot.EndingEquity.Add(futures.EndingEquity),
		SpotUnrealized:    spot.UnrealizedPnl,
		FuturesUnrealized: futures.UnrealizedPnl,
	}
}
