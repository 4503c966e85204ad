package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/alphastore-tech/dashboard-backend/internal/client/kis"
	"github.com/alphastore-tech/dashboard-backend/internal/models"
)

type fakeSecrets struct {
	token string
	err   error
}

func (f *fakeSecrets) AccessToken(ctx context.Context, secretID string) (string, error) {
	return f.token, f.err
}

type fakeFetcher struct {
	accountType string
	snap        kis.AccountSnapshot
	raw         []byte
	err         error

	gotToken string
}

func (f *fakeFetcher) AccountType() string { return f.accountType }

func (f *fakeFetcher) FetchSnapshot(ctx context.Context, accessToken string) (kis.AccountSnapshot, []byte, error) {
	f.gotToken = accessToken
	return f.snap, f.raw, f.err
}

// fakeRepo is an in-memory Repository. Maps are keyed the way the real
// store's conflict targets are, so repeat upserts overwrite in the fake
// exactly as they would in Postgres.
type fakeRepo struct {
	navs       map[string]models.DailyNav
	pnlRows    map[string]models.RealizedPnl
	records    map[string]models.PortfolioRecord
	snapshots  []models.KISRawSnapshot
	upsertErr  error
	pnlErr     error
	recordErr  error
	archiveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		navs:    make(map[string]models.DailyNav),
		pnlRows: make(map[string]models.RealizedPnl),
		records: make(map[string]models.PortfolioRecord),
	}
}

func (r *fakeRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return nil }

func (r *fakeRepo) UpsertDailyNav(ctx context.Context, item *models.DailyNav) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.navs[item.TradeDate.Format("2006-01-02")] = *item
	return nil
}

func (r *fakeRepo) GetDailyNav(ctx context.Context, tradeDate time.Time) (*models.DailyNav, error) {
	item, ok := r.navs[tradeDate.Format("2006-01-02")]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *fakeRepo) ListDailyNav(ctx context.Context, start, end time.Time) ([]models.DailyNav, error) {
	out := make([]models.DailyNav, 0, len(r.navs))
	for _, item := range r.navs {
		out = append(out, item)
	}
	return out, nil
}

func (r *fakeRepo) UpsertRealizedPnlRows(ctx context.Context, items []models.RealizedPnl) error {
	if r.pnlErr != nil {
		return r.pnlErr
	}
	for _, item := range items {
		r.pnlRows[item.AccountNo+"/"+item.TradDt] = item
	}
	return nil
}

func (r *fakeRepo) ListRealizedPnl(ctx context.Context, accountNo, startYMD, endYMD string) ([]models.RealizedPnl, error) {
	out := make([]models.RealizedPnl, 0, len(r.pnlRows))
	for _, item := range r.pnlRows {
		out = append(out, item)
	}
	return out, nil
}

func (r *fakeRepo) UpsertPortfolioRecord(ctx context.Context, item *models.PortfolioRecord) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	r.records[item.RecordDate.Format("2006-01-02")+"/"+item.AccountType+"/"+item.AccountNo] = *item
	return nil
}

func (r *fakeRepo) GetPortfolioRecord(ctx context.Context, date time.Time, accountType, accountNo string) (*models.PortfolioRecord, error) {
	item, ok := r.records[date.Format("2006-01-02")+"/"+accountType+"/"+accountNo]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *fakeRepo) DeletePortfolioRecord(ctx context.Context, date time.Time, accountType, accountNo string) (int64, error) {
	key := date.Format("2006-01-02") + "/" + accountType + "/" + accountNo
	if _, ok := r.records[key]; !ok {
		return 0, nil
	}
	delete(r.records, key)
	return 1, nil
}

func (r *fakeRepo) InsertRawSnapshot(ctx context.Context, item *models.KISRawSnapshot) error {
	if r.archiveErr != nil {
		return r.archiveErr
	}
	r.snapshots = append(r.snapshots, *item)
	return nil
}

func snapshot(equity, unrealized, cash string) kis.AccountSnapshot {
	return kis.AccountSnapshot{
		EndingEquity:  decimal.RequireFromString(equity),
		UnrealizedPnl: decimal.RequireFromString(unrealized),
		CashBalance:   decimal.RequireFromString(cash),
	}
}

func TestNavPipelineRunOnce_PersistsCombinedNav(t *testing.T) {
	repo := newFakeRepo()
	spot := &fakeFetcher{accountType: "spot", snap: snapshot("1000000", "25000", "400000"), raw: []byte(`{"rt_cd":"0"}`)}
	futures := &fakeFetcher{accountType: "future", snap: snapshot("2000000", "-5000", "900000"), raw: []byte(`{"rt_cd":"0"}`)}
	p := &NavPipeline{
		Secrets:  &fakeSecrets{token: "tok"},
		SecretID: "kis/access-token",
		Spot:     spot,
		Futures:  futures,
		Repo:     repo,
	}

	report, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if report.Step != StepDone || report.Aborted {
		t.Fatalf("report=%+v want step=%s aborted=false", report, StepDone)
	}
	if spot.gotToken != "tok" || futures.gotToken != "tok" {
		t.Fatalf("fetchers got tokens %q, %q want tok", spot.gotToken, futures.gotToken)
	}

	stored, ok := repo.navs[report.TradeDate.Format("2006-01-02")]
	if !ok {
		t.Fatalf("no nav row stored for %s", report.TradeDate.Format("2006-01-02"))
	}
	if stored.TotalNav.Cmp(decimal.RequireFromString("3000000")) != 0 {
		t.Fatalf("total_nav=%s want=3000000", stored.TotalNav)
	}
	if stored.SpotUnrealized.Cmp(decimal.RequireFromString("25000")) != 0 {
		t.Fatalf("spot_unrealized=%s want=25000", stored.SpotUnrealized)
	}
	if len(repo.snapshots) != 2 {
		t.Fatalf("archived snapshots=%d want=2", len(repo.snapshots))
	}
}

func TestNavPipelineRunOnce_SpotFailureAbortsBeforeAnyWrite(t *testing.T) {
	repo := newFakeRepo()
	p := &NavPipeline{
		Secrets: &fakeSecrets{token: "tok"},
		Spot:    &fakeFetcher{accountType: "spot", err: errors.New("upstream down")},
		Futures: &fakeFetcher{accountType: "future", snap: snapshot("2000000", "0", "0")},
		Repo:    repo,
	}

	report, err := p.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("want error")
	}
	if report.Step != StepFetchSpot || !report.Aborted {
		t.Fatalf("report=%+v want step=%s aborted=true", report, StepFetchSpot)
	}
	if len(repo.navs) != 0 {
		t.Fatalf("nav rows stored=%d want=0 on aborted run", len(repo.navs))
	}
}

func TestNavPipelineRunOnce_FuturesFailureAbortsBeforeAggregate(t *testing.T) {
	repo := newFakeRepo()
	p := &NavPipeline{
		Secrets: &fakeSecrets{token: "tok"},
		Spot:    &fakeFetcher{accountType: "spot", snap: snapshot("1000000", "0", "0")},
		Futures: &fakeFetcher{accountType: "future", err: errors.New("timeout")},
		Repo:    repo,
	}

	report, err := p.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("want error")
	}
	if report.Step != StepFetchFutures || !report.Aborted {
		t.Fatalf("report=%+v want step=%s aborted=true", report, StepFetchFutures)
	}
	if len(repo.navs) != 0 {
		t.Fatalf("nav rows stored=%d want=0 on aborted run", len(repo.navs))
	}
}

func TestNavPipelineRunOnce_TokenFailureAbortsFirst(t *testing.T) {
	p := &NavPipeline{
		Secrets: &fakeSecrets{err: errors.New("secret not found")},
		Spot:    &fakeFetcher{accountType: "spot"},
		Futures: &fakeFetcher{accountType: "future"},
		Repo:    newFakeRepo(),
	}

	report, err := p.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("want error")
	}
	if report.Step != StepResolveToken || !report.Aborted {
		t.Fatalf("report=%+v want step=%s aborted=true", report, StepResolveToken)
	}
}

func TestNavPipelineRunOnce_PersistFailureAborts(t *testing.T) {
	repo := newFakeRepo()
	repo.upsertErr = errors.New("db unavailable")
	p := &NavPipeline{
		Secrets: &fakeSecrets{token: "tok"},
		Spot:    &fakeFetcher{accountType: "spot", snap: snapshot("1", "0", "0")},
		Futures: &fakeFetcher{accountType: "future", snap: snapshot("2", "0", "0")},
		Repo:    repo,
	}

	report, err := p.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("want error")
	}
	if report.Step != StepPersist || !report.Aborted {
		t.Fatalf("report=%+v want step=%s aborted=true", report, StepPersist)
	}
}

func TestNavPipelineRunOnce_ArchiveFailureDoesNotAbort(t *testing.T) {
	repo := newFakeRepo()
	repo.archiveErr = errors.New("jsonb column full")
	p := &NavPipeline{
		Secrets: &fakeSecrets{token: "tok"},
		Spot:    &fakeFetcher{accountType: "spot", snap: snapshot("10", "0", "0"), raw: []byte(`{}`)},
		Futures: &fakeFetcher{accountType: "future", snap: snapshot("20", "0", "0"), raw: []byte(`{}`)},
		Repo:    repo,
	}

	report, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if report.Step != StepDone {
		t.Fatalf("step=%s want=%s", report.Step, StepDone)
	}
	if len(repo.navs) != 1 {
		t.Fatalf("nav rows stored=%d want=1", len(repo.navs))
	}
}

func TestNavPipelineRunOnce_RerunReplacesSameDay(t *testing.T) {
	repo := newFakeRepo()
	spot := &fakeFetcher{accountType: "spot", snap: snapshot("1000000", "0", "0")}
	p := &NavPipeline{
		Secrets: &fakeSecrets{token: "tok"},
		Spot:    spot,
		Futures: &fakeFetcher{accountType: "future", snap: snapshot("2000000", "0", "0")},
		Repo:    repo,
	}

	if _, err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	spot.snap = snapshot("1500000", "0", "0")
	report, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(repo.navs) != 1 {
		t.Fatalf("nav rows=%d want=1 after rerun", len(repo.navs))
	}
	stored := repo.navs[report.TradeDate.Format("2006-01-02")]
	if stored.TotalNav.Cmp(decimal.RequireFromString("3500000")) != 0 {
		t.Fatalf("total_nav=%s want=3500000 after rerun", stored.TotalNav)
	}
}
