package domain

import "time"

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// at devuelve t0 + d.
func at(d time.Duration) time.Time { return t0.Add(d) }

func buy(ts time.Time, asset string, qty float64) Trade {
	return Trade{Timestamp: ts, Asset: asset, Side: SideBuy, Quantity: qty, EntryPrice: 100}
}

func sell(ts time.Time, asset string, qty float64) Trade {
	return Trade{Timestamp: ts, Asset: asset, Side: SideSell, Quantity: qty, EntryPrice: 100}
}

// pl construye un trade de valor value (qty 1) con el P&L dado, separado una hora del anterior.
func plSeries(values, pls []float64) []Trade {
	out := make([]Trade, len(values))
	for i := range values {
		out[i] = Trade{
			Timestamp:  at(time.Duration(i) * time.Hour),
			Asset:      "X",
			Side:       SideBuy,
			Quantity:   1,
			EntryPrice: values[i],
			ProfitLoss: pls[i],
		}
	}
	return out
}

// threeRowFixture: BUY A, SELL A con ganancia, SELL B con pérdida, una hora entre cada uno.
func threeRowFixture() []Trade {
	return []Trade{
		{Timestamp: at(0), Asset: "A", Side: SideBuy, Quantity: 1, EntryPrice: 100, ProfitLoss: 0},
		{Timestamp: at(time.Hour), Asset: "A", Side: SideSell, Quantity: 1, EntryPrice: 110, ProfitLoss: 10},
		{Timestamp: at(2 * time.Hour), Asset: "B", Side: SideSell, Quantity: 1, EntryPrice: 90, ProfitLoss: -5},
	}
}
