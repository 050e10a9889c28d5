package model

import "github.com/shopspring/decimal"

// VolatilityRecord is one realized return of one symbol's bar, persisted
// in the kline table. (StartTime, Symbol) is the unique key.
type VolatilityRecord struct {
	StartTime   int64  `gorm:"column:start_time;primaryKey"`
	Symbol      string `gorm:"column:symbol;primaryKey"`
	PriceChange string `gorm:"column:price_change;type:text"`
}

func (VolatilityRecord) TableName() string {
	return "kline"
}

// NewVolatilityRecord builds a record from a bar's realized return.
func NewVolatilityRecord(startTime int64, symbol string, priceChange decimal.Decimal) VolatilityRecord {
	return VolatilityRecord{
		StartTime:   startTime,
		Symbol:      symbol,
		PriceChange: priceChange.String(),
	}
}

// Change parses the stored return. Records are only ever written from a
// decimal, so the parse failure branch maps to zero.
func (r VolatilityRecord) Change() decimal.Decimal {
	d, err := decimal.NewFromString(r.PriceChange)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Trade is the reconciliation record of one executed order: what the
// engine expected against what the venue reported. Written exactly once
// per order, never updated.
type Trade struct {
	OrderID       string `gorm:"column:order_id;primaryKey"`
	Symbol        string `gorm:"column:symbol"`
	TimeExpected  int64  `gorm:"column:time_expected"`
	TimeExecuted  int64  `gorm:"column:time_executed"`
	PriceExpected string `gorm:"column:price_expected"`
	PriceExecuted string `gorm:"column:price_executed"`
}

func (Trade) TableName() string {
	return "trades"
}
