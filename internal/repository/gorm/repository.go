package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alphastore-tech/dashboard-backend/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- daily NAV --------------------------------------------------------------

var dailyNavUpdateColumns = []string{
	"spot_nav",
	"futures_nav",
	"total_nav",
	"spot_unrealized",
	"futures_unrealized",
	"created_at",
}

func (s *Store) UpsertDailyNav(ctx context.Context, item *models.DailyNav) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.CreatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns(dailyNavUpdateColumns),
	}).Create(item).Error
}

func (s *Store) GetDailyNav(ctx context.Context, tradeDate time.Time) (*models.DailyNav, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.DailyNav
	err := s.db.WithContext(ctx).
		Where("trade_date = ?", tradeDate.Format("2006-01-02")).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListDailyNav(ctx context.Context, start, end time.Time) ([]models.DailyNav, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	items := []models.DailyNav{}
	err := s.db.WithContext(ctx).
		Where("trade_date BETWEEN ? AND ?", start.Format("2006-01-02"), end.Format("2006-01-02")).
		Order("trade_date asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- realized PnL -----------------------------------------------------------

var realizedPnlUpdateColumns = []string{
	"buy_amt",
	"sll_amt",
	"rlzt_pfls",
	"fee",
	"loan_int",
	"tl_tax",
	"pfls_rt",
	"sll_qty1",
	"buy_qty1",
	"created_at",
}

func (s *Store) UpsertRealizedPnlRows(ctx context.Context, items []models.RealizedPnl) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range items {
		items[i].CreatedAt = now
	}
	return s.InTx(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_no"}, {Name: "trad_dt"}},
			DoUpdates: clause.AssignmentColumns(realizedPnlUpdateColumns),
		}).Create(&items).Error
	})
}

func (s *Store) ListRealizedPnl(ctx context.Context, accountNo, startYMD, endYMD string) ([]models.RealizedPnl, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.RealizedPnl{})
	if strings.TrimSpace(accountNo) != "" {
		query = query.Where("account_no = ?", strings.TrimSpace(accountNo))
	}
	items := []models.RealizedPnl{}
	err := query.
		Where("trad_dt BETWEEN ? AND ?", startYMD, endYMD).
		Order("trad_dt asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- portfolio records ------------------------------------------------------

var portfolioUpdateColumns = []string{
	"nav",
	"cash",
	"unrealized_pnl",
	"realized_pnl",
	"net_cashflow",
	"fee",
	"updated_at",
}

func (s *Store) UpsertPortfolioRecord(ctx context.Context, item *models.PortfolioRecord) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "record_date"},
			{Name: "account_type"},
			{Name: "account_no"},
		},
		DoUpdates: clause.AssignmentColumns(portfolioUpdateColumns),
	}).Create(item).Error
}

func (s *Store) GetPortfolioRecord(ctx context.Context, date time.Time, accountType, accountNo string) (*models.PortfolioRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.PortfolioRecord
	err := s.db.WithContext(ctx).
		Where("record_date = ? AND account_type = ? AND account_no = ?",
			date.Format("2006-01-02"), accountType, accountNo).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeletePortfolioRecord(ctx context.Context, date time.Time, accountType, accountNo string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("record_date = ? AND account_type = ? AND account_no = ?",
			date.Format("2006-01-02"), accountType, accountNo).
		Delete(&models.PortfolioRecord{})
	return res.RowsAffected, res.Error
}

// --- raw snapshots ----------------------------------------------------------

func (s *Store) InsertRawSnapshot(ctx context.Context, item *models.KISRawSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.FetchedAt.IsZero() {
		item.FetchedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(item).Error
}
