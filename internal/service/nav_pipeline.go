package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/alphastore-tech/dashboard-backend/internal/client/kis"
	"github.com/alphastore-tech/dashboard-backend/internal/models"
	"github.com/alphastore-tech/dashboard-backend/internal/nav"
	"github.com/alphastore-tech/dashboard-backend/internal/repository"
)

// TokenResolver is the slice of the secret store the pipelines need.
type TokenResolver interface {
	AccessToken(ctx context.Context, secretID string) (string, error)
}

// Pipeline steps, in run order. A report naming one of the fetch or persist
// steps together with Aborted means the run stopped there and nothing was
// written for the day.
const (
	StepResolveToken = "resolve_token"
	StepFetchSpot    = "fetch_spot"
	StepFetchFutures = "fetch_futures"
	StepAggregate    = "aggregate"
	StepPersist      = "persist"
	StepDone         = "done"
)

type RunReport struct {
	TradeDate time.Time
	Step      string
	Aborted   bool
}

// NavPipeline is the once-daily job that snapshots both accounts,
// aggregates them into one combined-NAV row and upserts it. Either fetch
// failing aborts the run before aggregation: a partial NAV is never
// persisted. A persist failure also aborts; the next scheduled run
// recomputes from scratch, which is safe because the upsert is keyed on
// trade date.
type NavPipeline struct {
	Secrets  TokenResolver
	SecretID string
	Spot     kis.SnapshotFetcher
	Futures  kis.SnapshotFetcher
	Repo     repository.Repository
	Logger   *zap.Logger
	Loc      *time.Location
}

func (p *NavPipeline) RunOnce(ctx context.Context) (RunReport, error) {
	loc := p.Loc
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	tradeDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	report := RunReport{TradeDate: tradeDate}

	report.Step = StepResolveToken
	token, err := p.Secrets.AccessToken(ctx, p.SecretID)
	if err != nil {
		report.Aborted = true
		return report, fmt.Errorf("resolve access token: %w", err)
	}

	report.Step = StepFetchSpot
	spot, spotRaw, err := p.Spot.FetchSnapshot(ctx, token)
	if err != nil {
		report.Aborted = true
		return report, fmt.Errorf("fetch spot snapshot: %w", err)
	}
	p.archive(ctx, "spot_balance", spotRaw)

	report.Step = StepFetchFutures
	futures, futRaw, err := p.Futures.FetchSnapshot(ctx, token)
	if err != nil {
		report.Aborted = true
		return report, fmt.Errorf("fetch futures snapshot: %w", err)
	}
	p.archive(ctx, "futures_balance", futRaw)

	report.Step = StepAggregate
	record := nav.Aggregate(tradeDate, spot, futures)

	report.Step = StepPersist
	if err := p.Repo.UpsertDailyNav(ctx, &record); err != nil {
		report.Aborted = true
		return report, fmt.Errorf("persist daily nav: %w", err)
	}

	if p.Logger != nil {
		p.Logger.Info("daily nav persisted",
			zap.String("trade_date", tradeDate.Format("2006-01-02")),
			zap.String("total_nav", record.TotalNav.String()),
			zap.String("spot_nav", record.SpotNav.String()),
			zap.String("futures_nav", record.FuturesNav.String()),
		)
	}
	report.Step = StepDone
	return report, nil
}

// archive stores a raw upstream body for audit. Best effort: a failed
// archive write never aborts the run.
func (p *NavPipeline) archive(ctx context.Context, endpoint string, body []byte) {
	if p.Repo == nil || len(body) == 0 {
		return
	}
	item := &models.KISRawSnapshot{
		Endpoint:  endpoint,
		TrID:      trIDForEndpoint(endpoint),
		FetchedAt: time.Now().UTC(),
		Payload:   datatypes.JSON(body),
	}
	if err := p.Repo.InsertRawSnapshot(ctx, item); err != nil && p.Logger != nil {
		p.Logger.Warn("raw snapshot archive failed",
			zap.String("endpoint", endpoint), zap.Error(err))
	}
}

func trIDForEndpoint(endpoint string) string {
	switch endpoint {
	case "spot_balance":
		return "TTTC8434R"
	case "futures_balance":
		return "CTFO6118R"
	case "realized_pnl":
		return "TTTC8708R"
	default:
		return ""
	}
}
