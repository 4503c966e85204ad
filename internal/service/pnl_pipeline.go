package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/alphastore-tech/dashboard-backend/internal/client/kis"
	"github.com/alphastore-tech/dashboard-backend/internal/models"
	"github.com/alphastore-tech/dashboard-backend/internal/repository"
)

// pnlIdentityTolerance bounds |rlzt_pfls - (sll_amt - buy_amt)|. Rows
// outside it are logged and still persisted: the upstream figure is
// authoritative, the check only surfaces suspect data.
var pnlIdentityTolerance = decimal.RequireFromString("0.01")

// PnlPipeline loads daily realized profit/loss rows for the spot account
// over [StartYMD, today]. Rows are upserted keyed on (account, trad_dt), so
// replaying an already-loaded range replaces instead of duplicating.
type PnlPipeline struct {
	Secrets  TokenResolver
	SecretID string
	Client   *kis.Client
	Account  kis.Account
	Repo     repository.Repository
	Logger   *zap.Logger
	Loc      *time.Location
	StartYMD string
}

func (p *PnlPipeline) RunOnce(ctx context.Context) (int, error) {
	loc := p.Loc
	if loc == nil {
		loc = time.UTC
	}
	endYMD := time.Now().In(loc).Format("20060102")
	startYMD := p.StartYMD
	if startYMD == "" {
		startYMD = endYMD
	}

	token, err := p.Secrets.AccessToken(ctx, p.SecretID)
	if err != nil {
		return 0, fmt.Errorf("resolve access token: %w", err)
	}

	result, raw, err := p.Client.RealizedPnl(ctx, token, p.Account, startYMD, endYMD)
	if err != nil {
		return 0, fmt.Errorf("fetch realized pnl: %w", err)
	}
	p.archiveRaw(ctx, raw)

	if len(result.Rows) == 0 {
		if p.Logger != nil {
			p.Logger.Info("realized pnl fetch returned no rows",
				zap.String("start", startYMD), zap.String("end", endYMD))
		}
		return 0, nil
	}

	items := make([]models.RealizedPnl, 0, len(result.Rows))
	for _, row := range result.Rows {
		if !pnlIdentityHolds(row) && p.Logger != nil {
			p.Logger.Warn("realized pnl identity violated",
				zap.String("trad_dt", row.TradDt),
				zap.String("rlzt_pfls", nullDecimalString(row.RlztPfls)),
				zap.String("sll_amt", nullDecimalString(row.SllAmt)),
				zap.String("buy_amt", nullDecimalString(row.BuyAmt)),
			)
		}
		items = append(items, models.RealizedPnl{
			AccountNo: p.Account.CANO,
			TradDt:    row.TradDt,
			BuyAmt:    row.BuyAmt,
			SllAmt:    row.SllAmt,
			RlztPfls:  row.RlztPfls,
			Fee:       row.Fee,
			LoanInt:   row.LoanInt,
			TlTax:     row.TlTax,
			PflsRt:    row.PflsRt,
			SllQty1:   row.SllQty1,
			BuyQty1:   row.BuyQty1,
		})
	}

	if err := p.Repo.UpsertRealizedPnlRows(ctx, items); err != nil {
		return 0, fmt.Errorf("persist realized pnl: %w", err)
	}
	if p.Logger != nil {
		p.Logger.Info("realized pnl persisted",
			zap.Int("rows", len(items)),
			zap.String("start", startYMD),
			zap.String("end", endYMD),
		)
	}
	return len(items), nil
}

// pnlIdentityHolds checks rlzt_pfls against sll_amt - buy_amt within the
// rounding tolerance. Rows with any of the three fields missing pass: the
// identity cannot be evaluated on partial data.
func pnlIdentityHolds(row kis.RealizedPnlRow) bool {
	if !row.RlztPfls.Valid || !row.SllAmt.Valid || !row.BuyAmt.Valid {
		return true
	}
	diff := row.RlztPfls.Decimal.Sub(row.SllAmt.Decimal.Sub(row.BuyAmt.Decimal)).Abs()
	return diff.LessThan(pnlIdentityTolerance)
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "null"
	}
	return d.Decimal.String()
}

func (p *PnlPipeline) archiveRaw(ctx context.Context, body []byte) {
	if p.Repo == nil || len(body) == 0 {
		return
	}
	item := &models.KISRawSnapshot{
		Endpoint:  "realized_pnl",
		TrID:      trIDForEndpoint("realized_pnl"),
		FetchedAt: time.Now().UTC(),
		Payload:   datatypes.JSON(body),
	}
	if err := p.Repo.InsertRawSnapshot(ctx, item); err != nil && p.Logger != nil {
		p.Logger.Warn("raw snapshot archive failed",
			zap.String("endpoint", "realized_pnl"), zap.Error(err))
	}
}
