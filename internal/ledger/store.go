// Package ledger persists trade and volatility records. Trades are
// append-only; volatility history is bounded per symbol with oldest-row
// eviction done in the same transaction as the insert.
package ledger

import (
	"context"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"

	"volbreak/internal/model"
)

var (
	ErrDuplicateTrade = errors.New("trade already recorded for order id")
	ErrRowCount       = errors.New("written row count does not match expected")
)

// Store is the ledger backed by a relational database.
type Store struct {
	db *gorm.DB
}

// New migrates the trades and kline tables and returns the store.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&model.Trade{}, &model.VolatilityRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate ledger tables")
	}
	return &Store{db: db}, nil
}

// Reset deletes all trade and volatility rows of one symbol. Used at
// engine (re)initialization before backfill; other symbols' rows are
// untouched.
func (s *Store) Reset(ctx context.Context, symbol string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("symbol = ?", symbol).Delete(&model.Trade{}).Error; err != nil {
			return errors.Wrap(err, "reset trades")
		}
		if err := tx.Where("symbol = ?", symbol).Delete(&model.VolatilityRecord{}).Error; err != nil {
			return errors.Wrap(err, "reset kline")
		}
		return nil
	})
}

// InsertVolatility appends one record and evicts the oldest rows of the
// same symbol beyond limit, as one transaction. Concurrent readers of
// the symbol's history never observe an over- or under-sized window.
func (s *Store) InsertVolatility(ctx context.Context, rec model.VolatilityRecord, limit int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return errors.Wrap(err, "insert kline row")
		}

		var count int64
		if err := tx.Model(&model.VolatilityRecord{}).
			Where("symbol = ?", rec.Symbol).
			Count(&count).Error; err != nil {
			return errors.Wrap(err, "count kline rows")
		}
		if count <= int64(limit) {
			return nil
		}

		var oldest []int64
		if err := tx.Model(&model.VolatilityRecord{}).
			Where("symbol = ?", rec.Symbol).
			Order("start_time asc").
			Limit(int(count - int64(limit))).
			Pluck("start_time", &oldest).Error; err != nil {
			return errors.Wrap(err, "find oldest kline rows")
		}
		if err := tx.Where("symbol = ? AND start_time IN ?", rec.Symbol, oldest).
			Delete(&model.VolatilityRecord{}).Error; err != nil {
			return errors.Wrap(err, "evict oldest kline rows")
		}
		return nil
	})
}

// BulkInsertVolatility writes backfilled records and verifies the
// affected row count matches, per the bootstrap integrity check.
func (s *Store) BulkInsertVolatility(ctx context.Context, recs []model.VolatilityRecord) error {
	if len(recs) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).CreateInBatches(recs, 1000)
	if result.Error != nil {
		return errors.Wrap(result.Error, "bulk insert kline rows")
	}
	if result.RowsAffected != int64(len(recs)) {
		return errors.Wrap(ErrRowCount, "bulk insert kline rows").
			With("written", result.RowsAffected).
			With("expected", len(recs))
	}
	return nil
}

// VolatilityHistory returns all retained records of one symbol in
// ascending start-time order.
func (s *Store) VolatilityHistory(ctx context.Context, symbol string) ([]model.VolatilityRecord, error) {
	var recs []model.VolatilityRecord
	if err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("start_time asc").
		Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "read kline history")
	}
	return recs, nil
}

// InsertTrade appends one trade record. A duplicate order id is an
// error; trades are written exactly once and never mutated.
func (s *Store) InsertTrade(ctx context.Context, trade model.Trade) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Trade{}).
		Where("order_id = ?", trade.OrderID).
		Count(&count).Error; err != nil {
		return errors.Wrap(err, "check trade existence")
	}
	if count > 0 {
		return errors.Wrap(ErrDuplicateTrade, trade.OrderID)
	}
	if err := s.db.WithContext(ctx).Create(&trade).Error; err != nil {
		return errors.Wrap(err, "insert trade")
	}
	return nil
}

// Trades returns all recorded trades, newest last.
func (s *Store) Trades(ctx context.Context) ([]model.Trade, error) {
	var trades []model.Trade
	if err := s.db.WithContext(ctx).Order("time_expected asc").Find(&trades).Error; err != nil {
		return nil, errors.Wrap(err, "read trades")
	}
	return trades, nil
}

// Volatility returns all volatility rows across symbols, used by the
// dump utility.
func (s *Store) Volatility(ctx context.Context) ([]model.VolatilityRecord, error) {
	var recs []model.VolatilityRecord
	if err := s.db.WithContext(ctx).Order("symbol asc, start_time asc").Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "read kline rows")
	}
	return recs, nil
}
