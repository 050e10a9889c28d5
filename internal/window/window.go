package window

import (
	"errors"
	"math"
	"sync"

	"volbreak/internal/model"
)

var (
	ErrSymbolMismatch = errors.New("record belongs to another symbol")
	ErrNotAscending   = errors.New("record start time is not ascending")
)

// Window is the bounded rolling history of realized returns for one
// symbol. Records are kept strictly ascending by start time; inserting
// beyond the limit evicts the single oldest record.
type Window struct {
	mu      sync.RWMutex
	symbol  string
	limit   int
	records []model.VolatilityRecord
}

// New creates an empty window holding at most limit records.
func New(symbol string, limit int) *Window {
	return &Window{
		symbol:  symbol,
		limit:   limit,
		records: make([]model.VolatilityRecord, 0, limit),
	}
}

func (w *Window) Symbol() string {
	return w.symbol
}

func (w *Window) Size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.records)
}

// Insert appends a record and evicts the oldest one when the window
// would exceed its limit. Append and evict are a single step under the
// window lock, so no reader observes an over-sized window.
func (w *Window) Insert(rec model.VolatilityRecord) error {
	if rec.Symbol != w.symbol {
		return ErrSymbolMismatch
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if n := len(w.records); n > 0 && rec.StartTime <= w.records[n-1].StartTime {
		return ErrNotAscending
	}

	w.records = append(w.records, rec)
	if len(w.records) > w.limit {
		w.records = w.records[1:]
	}
	return nil
}

// Seed replaces the window content with backfilled records, keeping only
// the most recent limit entries.
func (w *Window) Seed(recs []model.VolatilityRecord) error {
	w.mu.Lock()
	w.records = w.records[:0]
	w.mu.Unlock()

	for _, rec := range recs {
		if err := w.Insert(rec); err != nil {
			return err
		}
	}
	return nil
}

// StdDev returns the sample standard deviation (divisor n-1) of the
// retained returns. ok is false when fewer than two records are held,
// which means no signal rather than zero volatility.
func (w *Window) StdDev() (float64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	n := len(w.records)
	if n < 2 {
		return 0, false
	}

	sum := 0.0
	for _, rec := range w.records {
		sum += rec.Change().InexactFloat64()
	}
	mean := sum / float64(n)

	ss := 0.0
	for _, rec := range w.records {
		d := rec.Change().InexactFloat64() - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1)), true
}

// Records returns a copy of the retained records in ascending order.
func (w *Window) Records() []model.VolatilityRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]model.VolatilityRecord, len(w.records))
	copy(out, w.records)
	return out
}
