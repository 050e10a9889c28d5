package window

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volbreak/internal/model"
)

func record(symbol string, startTime int64, change string) model.VolatilityRecord {
	return model.NewVolatilityRecord(startTime, symbol, decimal.RequireFromString(change))
}

func TestWindowBoundedSize(t *testing.T) {
	const limit = 5
	w := New("BTCUSDT", limit)

	for i := 0; i < 12; i++ {
		err := w.Insert(record("BTCUSDT", int64(i)*60000, "0.001"))
		require.NoError(t, err)

		expected := i + 1
		if expected > limit {
			expected = limit
		}
		assert.Equal(t, expected, w.Size())
	}

	// Retained records are the most recent ones, still ascending.
	recs := w.Records()
	require.Len(t, recs, limit)
	for i, rec := range recs {
		assert.Equal(t, int64(7+i)*60000, rec.StartTime)
	}
}

func TestWindowRejectsForeignSymbol(t *testing.T) {
	w := New("BTCUSDT", 3)
	err := w.Insert(record("ETHUSDT", 0, "0.001"))
	assert.ErrorIs(t, err, ErrSymbolMismatch)
	assert.Zero(t, w.Size())
}

func TestWindowRejectsNonAscending(t *testing.T) {
	w := New("BTCUSDT", 3)
	require.NoError(t, w.Insert(record("BTCUSDT", 120000, "0.001")))

	assert.ErrorIs(t, w.Insert(record("BTCUSDT", 120000, "0.002")), ErrNotAscending)
	assert.ErrorIs(t, w.Insert(record("BTCUSDT", 60000, "0.002")), ErrNotAscending)
	assert.Equal(t, 1, w.Size())
}

func TestWindowStdDev(t *testing.T) {
	w := New("BTCUSDT", 10)

	_, ok := w.StdDev()
	assert.False(t, ok, "empty window has no signal")

	require.NoError(t, w.Insert(record("BTCUSDT", 0, "0.01")))
	_, ok = w.StdDev()
	assert.False(t, ok, "single record has no signal")

	require.NoError(t, w.Insert(record("BTCUSDT", 60000, "0.02")))
	require.NoError(t, w.Insert(record("BTCUSDT", 120000, "0.03")))

	// Sample std dev of {0.01, 0.02, 0.03} is 0.01.
	std, ok := w.StdDev()
	require.True(t, ok)
	assert.InDelta(t, 0.01, std, 1e-12)
}

func TestWindowStdDevTracksEviction(t *testing.T) {
	w := New("BTCUSDT", 2)
	require.NoError(t, w.Insert(record("BTCUSDT", 0, "1")))
	require.NoError(t, w.Insert(record("BTCUSDT", 60000, "0.01")))
	require.NoError(t, w.Insert(record("BTCUSDT", 120000, "0.03")))

	// The first record was evicted; only {0.01, 0.03} remain.
	std, ok := w.StdDev()
	require.True(t, ok)
	assert.InDelta(t, 0.02/math.Sqrt2, std, 1e-12)
}

func TestWindowSeed(t *testing.T) {
	w := New("BTCUSDT", 3)
	require.NoError(t, w.Seed([]model.VolatilityRecord{
		record("BTCUSDT", 0, "0.01"),
		record("BTCUSDT", 60000, "0.02"),
		record("BTCUSDT", 120000, "0.03"),
		record("BTCUSDT", 180000, "0.04"),
	}))

	require.Equal(t, 3, w.Size())
	assert.Equal(t, int64(60000), w.Records()[0].StartTime)

	// Seeding again replaces previous content.
	require.NoError(t, w.Seed([]model.VolatilityRecord{record("BTCUSDT", 240000, "0.05")}))
	assert.Equal(t, 1, w.Size())
}

func TestWindowsAreIsolatedPerSymbol(t *testing.T) {
	x := New("BTCUSDT", 5)
	y := New("SCUSDT", 5)

	for i := 0; i < 4; i++ {
		require.NoError(t, x.Insert(record("BTCUSDT", int64(i)*60000, "0.001")))
	}

	assert.Equal(t, 4, x.Size())
	assert.Zero(t, y.Size())
}
