package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alphastore-tech/dashboard-backend/internal/client/kis"
	"github.com/alphastore-tech/dashboard-backend/internal/models"
	"github.com/alphastore-tech/dashboard-backend/internal/repository"
)

// EnrichmentStatus tags the realized-PnL enrichment of a portfolio record,
// so a degraded build (enrichment fetch failed, zeros substituted) is
// distinguishable from a true empty upstream answer.
type EnrichmentStatus string

const (
	EnrichmentOK       EnrichmentStatus = "ok"
	EnrichmentEmpty    EnrichmentStatus = "empty"
	EnrichmentDegraded EnrichmentStatus = "degraded"
)

// balanceFetcher lets tests stand in for the KIS client.
type balanceFetcher interface {
	SpotBalance(ctx context.Context, accessToken string, acct kis.Account) (kis.AccountSnapshot, []byte, error)
	FuturesBalance(ctx context.Context, accessToken string, acct kis.Account) (kis.AccountSnapshot, []byte, error)
	RealizedPnl(ctx context.Context, accessToken string, acct kis.Account, startYMD, endYMD string) (kis.RealizedPnlResult, []byte, error)
}

// PortfolioService builds, reads and deletes per-account portfolio records.
// The balance fetch is strict; the realized-PnL enrichment is deliberately
// lenient and degrades to zeros, isolated from the write-side pipelines
// which stay strict.
type PortfolioService struct {
	Secrets       TokenResolver
	SecretID      string
	Client        balanceFetcher
	SpotPrdtCd    string
	FuturesPrdtCd string
	Repo          repository.Repository
	Logger        *zap.Logger
}

func (s *PortfolioService) Build(ctx context.Context, date time.Time, accountType, accountNo string) (*models.PortfolioRecord, EnrichmentStatus, error) {
	token, err := s.Secrets.AccessToken(ctx, s.SecretID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve access token: %w", err)
	}

	var snap kis.AccountSnapshot
	switch accountType {
	case "spot":
		snap, _, err = s.Client.SpotBalance(ctx, token, kis.Account{CANO: accountNo, AcntPrdtCd: s.SpotPrdtCd})
	case "future":
		snap, _, err = s.Client.FuturesBalance(ctx, token, kis.Account{CANO: accountNo, AcntPrdtCd: s.FuturesPrdtCd})
	default:
		return nil, "", fmt.Errorf("unknown account type %q", accountType)
	}
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s balance: %w", accountType, err)
	}

	realized, fee, status := s.enrichRealizedPnl(ctx, token, accountNo, date)

	record := &models.PortfolioRecord{
		RecordDate:    date,
		AccountType:   accountType,
		AccountNo:     accountNo,
		Nav:           snap.EndingEquity,
		Cash:          snap.CashBalance,
		UnrealizedPnl: snap.UnrealizedPnl,
		RealizedPnl:   realized,
		// No cashflow source upstream; kept at zero until deposits and
		// withdrawals are reported by the brokerage.
		NetCashflow: decimal.Zero,
		Fee:         fee,
	}

	if err := s.Repo.UpsertPortfolioRecord(ctx, record); err != nil {
		return nil, status, fmt.Errorf("persist portfolio record: %w", err)
	}
	return record, status, nil
}

// enrichRealizedPnl reads the day's realized PnL for the record. Any fetch
// failure degrades to zeros rather than failing the build; the status tag
// tells callers which of the three cases they got.
func (s *PortfolioService) enrichRealizedPnl(ctx context.Context, token, accountNo string, date time.Time) (decimal.Decimal, decimal.Decimal, EnrichmentStatus) {
	ymd := date.Format("20060102")
	result, _, err := s.Client.RealizedPnl(ctx, token, kis.Account{CANO: accountNo, AcntPrdtCd: s.SpotPrdtCd}, ymd, ymd)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("realized pnl enrichment failed, using zeros",
				zap.String("date", ymd), zap.Error(err))
		}
		return decimal.Zero, decimal.Zero, EnrichmentDegraded
	}
	if len(result.Rows) == 0 {
		return decimal.Zero, decimal.Zero, EnrichmentEmpty
	}

	realized := decimal.Zero
	fee := decimal.Zero
	for _, row := range result.Rows {
		if row.RlztPfls.Valid {
			realized = realized.Add(row.RlztPfls.Decimal)
		}
		if row.Fee.Valid {
			fee = fee.Add(row.Fee.Decimal)
		}
	}
	return realized, fee, EnrichmentOK
}

func (s *PortfolioService) Get(ctx context.Context, date time.Time, accountType, accountNo string) (*models.PortfolioRecord, error) {
	return s.Repo.GetPortfolioRecord(ctx, date, accountType, accountNo)
}

func (s *PortfolioService) Delete(ctx context.Context, date time.Time, accountType, accountNo string) (int64, error) {
	return s.Repo.DeletePortfolioRecord(ctx, date, accountType, accountNo)
}
