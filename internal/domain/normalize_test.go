package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(ts, asset, side, qty, price, pl string) RawRow {
	return RawRow{Timestamp: ts, Asset: asset, Side: side, Quantity: qty, EntryPrice: price, ProfitLoss: pl}
}

func TestNormalize_SortsStable(t *testing.T) {
	res := Normalize([]RawRow{
		row("2024-01-01T02:00:00Z", "A", "buy", "1", "10", "0"),
		row("2024-01-01T01:00:00Z", "first", "BUY", "1", "10", "0"),
		row("2024-01-01T01:00:00Z", "second", "SELL", "1", "10", "0"),
	})

	require.Len(t, res.Trades, 3)
	assert.Equal(t, "first", res.Trades[0].Asset)
	assert.Equal(t, "second", res.Trades[1].Asset)
	assert.Equal(t, "A", res.Trades[2].Asset)
	assert.Equal(t, SideBuy, res.Trades[2].Side, "side se normaliza a mayúsculas")
	assert.Zero(t, res.Dropped)
}

func TestNormalize_DropsInvalidRows(t *testing.T) {
	res := Normalize([]RawRow{
		row("not a date", "A", "BUY", "1", "10", "0"),
		row("2024-01-01", "A", "BUY", "abc", "10", "0"),
		row("2024-01-01", "A", "BUY", "1", "", "0"),
		row("2024-01-01", "A", "BUY", "1", "10", "NaN"),
		row("2024-01-01", "A", "BUY", "0", "10", "0"),
		row("2024-01-01", "A", "BUY", "-3", "10", "0"),
		row("2024-01-01", "A", "BUY", "inf", "10", "0"),
		row("2024-01-02", " B ", "SELL", " 2.5 ", "10", "-1"),
	})

	require.Len(t, res.Trades, 1)
	assert.Equal(t, "B", res.Trades[0].Asset)
	assert.InDelta(t, 2.5, res.Trades[0].Quantity, 1e-12)
	assert.Equal(t, 7, res.Dropped)
	assert.Equal(t, map[string]int{
		DropTimestamp:   1,
		DropQuantity:    2,
		DropEntryPrice:  1,
		DropProfitLoss:  1,
		DropNonPositive: 2,
	}, res.DropReasons)
}

func TestNormalize_Empty(t *testing.T) {
	res := Normalize(nil)
	assert.Empty(t, res.Trades)
	assert.Zero(t, res.Dropped)
}

// --- ParseTimestamp ---

func TestParseTimestamp_Formats(t *testing.T) {
	want := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

	cases := map[string]string{
		"rfc3339":      "2024-03-05T14:30:00Z",
		"offset":       "2024-03-05T16:30:00+02:00",
		"space":        "2024-03-05 14:30:00",
		"naive T":      "2024-03-05T14:30:00",
		"minutes":      "2024-03-05 14:30",
		"unix seconds": "1709649000",
		"unix millis":  "1709649000000",
		"slashes":      "2024/03/05 14:30:00",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseTimestamp(in)
			require.True(t, ok)
			assert.True(t, want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestamp_FractionalUnix(t *testing.T) {
	got, ok := ParseTimestamp("1709649000.5")
	require.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, got.Sub(time.Unix(1709649000, 0)))
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "yesterday", "2024-13-45"} {
		_, ok := ParseTimestamp(in)
		assert.False(t, ok, in)
	}
}

// --- Ledger ---

func TestLedger_MissingColumns(t *testing.T) {
	l := Ledger{Columns: []string{"timestamp", "side", "quantity"}}
	assert.Equal(t, []string{"entry_price", "profit_loss"}, l.MissingColumns())

	full := Ledger{Columns: []string{"timestamp", "side", "quantity", "entry_price", "profit_loss"}}
	assert.Empty(t, full.MissingColumns())
}

func TestMissingColumnsError_Unwraps(t *testing.T) {
	var err error = &MissingColumnsError{Columns: []string{"side"}}
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "side")
}

func TestNormalizeColumn(t *testing.T) {
	assert.Equal(t, "entry_price", NormalizeColumn(" Entry Price "))
	assert.Equal(t, "timestamp", NormalizeColumn("\ufeffTimestamp"))
	assert.Equal(t, "profit_loss", NormalizeColumn("profit-loss"))
}

func TestRawRow_Set(t *testing.T) {
	var r RawRow
	r.Set("side", "BUY")
	r.Set("entry_price", "10")
	r.Set("notes", "ignored")

	assert.Equal(t, RawRow{Side: "BUY", EntryPrice: "10"}, r)
}

func TestParseTimestamp_OutOfRange(t *testing.T) {
	for _, in := range []string{
		"0001-01-01",
		"0001-01-01 00:00",
		"9999-12-31T23:59:59Z",
		"1e30",
		"-1e30",
		"99999999999999999999",
		"1000000000000000000",
		"1e+09",
	} {
		_, ok := ParseTimestamp(in)
		assert.False(t, ok, in)
	}
}

func TestParseTimestamp_ShortNumbersAreYears(t *testing.T) {
	got, ok := ParseTimestamp("2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)

	_, ok = ParseTimestamp("12345")
	assert.False(t, ok, "ni año ni unix")
}

func TestParseTimestamp_RangeBoundaries(t *testing.T) {
	_, ok := ParseTimestamp("1677-09-22")
	assert.True(t, ok)
	_, ok = ParseTimestamp("2262-04-11")
	assert.True(t, ok)
	_, ok = ParseTimestamp("1677-09-21")
	assert.False(t, ok)
	_, ok = ParseTimestamp("2262-04-12")
	assert.False(t, ok)
}

func TestNormalize_DropsOutOfRangeTimestamps(t *testing.T) {
	res := Normalize([]RawRow{
		row("0001-01-01 00:00", "A", "BUY", "1", "10", "0"),
		row("2024-01-01 00:00", "A", "BUY", "1", "10", "0"),
		row("2024-01-01 05:00", "A", "BUY", "1", "10", "0"),
		row("1e30", "A", "BUY", "1", "10", "0"),
		row("2024-06-01 05:00", "A", "BUY", "1", "10", "0"),
	})

	require.Len(t, res.Trades, 3)
	assert.Equal(t, 2, res.DropReasons[DropTimestamp])

	ot := ComputeOvertrading(res.Trades)
	assert.Equal(t, 1, ot.MaxTradesInOneHour)
}
