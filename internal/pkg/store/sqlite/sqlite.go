// Package sqlite is the embedded persistence gateway used for local runs and tests.
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const batchSize = 500

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open opens the database at dsn, ":memory:" gives a private in-memory database.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB: %w", err)
	}
	// один писатель, а in-memory база живёт в одном соединении
	sqlDB.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&offer{}, &marketProducts{}, &groupIDMarkets{}, &market{}); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return nil
}

func upsert[T any](ctx context.Context, db *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, batchSize).Error
}

func (s *Store) UpsertOffers(ctx context.Context, products []domain.Product) error {
	rows := make([]offer, 0, len(products))
	for _, p := range products {
		rows = append(rows, fromProduct(p))
	}
	if err := upsert(ctx, s.db, rows); err != nil {
		return fmt.Errorf("upsert offers: %w", err)
	}
	return nil
}

func (s *Store) UpsertUnitIndex(ctx context.Context, index []domain.UnitOffers) error {
	rows := make([]marketProducts, 0, len(index))
	for _, u := range index {
		rows = append(rows, marketProducts{
			ID:         u.ID,
			MarketType: string(u.MarketType),
			ProductIDs: u.ProductIDs,
			WeekStart:  day(u.WeekStart),
			WeekEnd:    day(u.WeekEnd),
			LastUpdate: day(u.LastUpdate),
		})
	}
	if err := upsert(ctx, s.db, rows); err != nil {
		return fmt.Errorf("upsert market_products: %w", err)
	}
	return nil
}

func (s *Store) UpsertGroupMarkets(ctx context.Context, groups []domain.GroupMarkets) error {
	rows := make([]groupIDMarkets, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, groupIDMarkets{
			GroupID:    g.GroupID,
			MarketType: string(g.MarketType),
			WeekStart:  day(g.WeekStart),
			WeekEnd:    day(g.WeekEnd),
			Markets:    g.Markets,
			LastUpdate: day(g.LastUpdate),
		})
	}
	if err := upsert(ctx, s.db, rows); err != nil {
		return fmt.Errorf("upsert group_id_markets: %w", err)
	}
	return nil
}

func (s *Store) UpsertMarkets(ctx context.Context, markets []domain.Market) error {
	rows := make([]market, 0, len(markets))
	for _, m := range markets {
		rows = append(rows, market{
			ID:            m.ID,
			MarketType:    string(m.MarketType),
			SellingRegion: m.SellingRegion,
			Name:          m.Name,
			Street:        m.Street,
			City:          m.City,
			PostalCode:    m.PostalCode,
		})
	}
	if err := upsert(ctx, s.db, rows); err != nil {
		return fmt.Errorf("upsert markets: %w", err)
	}
	return nil
}

func (s *Store) HasOffers(ctx context.Context, mt domain.MarketType, weekStart time.Time) (bool, error) {
	start := day(weekStart)
	var n int64
	err := s.db.WithContext(ctx).Model(&offer{}).
		Where("market_type = ? AND valid_from >= ? AND valid_from < ?", string(mt), start, start.AddDate(0, 0, 7)).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("count offers: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListMarkets(ctx context.Context, mt domain.MarketType) ([]domain.Market, error) {
	var rows []market
	if err := s.db.WithContext(ctx).Where("market_type = ?", string(mt)).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find markets: %w", err)
	}

	out := make([]domain.Market, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.Market{
			ID:            m.ID,
			MarketType:    domain.MarketType(m.MarketType),
			SellingRegion: m.SellingRegion,
			Name:          m.Name,
			Street:        m.Street,
			City:          m.City,
			PostalCode:    m.PostalCode,
		})
	}
	return out, nil
}

func (s *Store) ListGroupIDs(ctx context.Context, mt domain.MarketType, d time.Time) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&groupIDMarkets{}).
		Distinct("group_id").
		Where("market_type = ? AND week_start <= ? AND week_end >= ?", string(mt), day(d), day(d)).
		Order("group_id").
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("pluck group ids: %w", err)
	}
	return ids, nil
}

func (s *Store) ListUnitIndex(ctx context.Context, mt domain.MarketType, weekStart time.Time) ([]domain.UnitOffers, error) {
	var rows []marketProducts
	err := s.db.WithContext(ctx).
		Where("market_type = ? AND week_start = ?", string(mt), day(weekStart)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find market_products: %w", err)
	}

	out := make([]domain.UnitOffers, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.UnitOffers{
			ID:         r.ID,
			MarketType: domain.MarketType(r.MarketType),
			ProductIDs: r.ProductIDs,
			WeekStart:  r.WeekStart,
			WeekEnd:    r.WeekEnd,
			LastUpdate: r.LastUpdate,
		})
	}
	return out, nil
}

// Offers lists the stored offers of mt, mostly for tests and inspection.
func (s *Store) Offers(ctx context.Context, mt domain.MarketType) ([]domain.Product, error) {
	var rows []offer
	if err := s.db.WithContext(ctx).Where("market_type = ?", string(mt)).Order("unique_id_internal").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find offers: %w", err)
	}

	out := make([]domain.Product, 0, len(rows))
	for _, o := range rows {
		out = append(out, o.toProduct())
	}
	return out, nil
}
