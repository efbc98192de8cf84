package domain

import "time"

// Overtrading resume la distribución de trades por hora.
type Overtrading struct {
	AvgTradesPerHour   float64 `json:"avg_trades_per_hour"`
	MaxTradesInOneHour int     `json:"max_trades_in_one_hour"`
}

// ComputeOvertrading reparte los trades en ventanas de 1h que cubren
// [floor(min, h), ceil(max, h)] inclusive, con las horas vacías contando como 0.
// Sin trades devuelve 0, 0.
func ComputeOvertrading(trades []Trade) Overtrading {
	if len(trades) == 0 {
		return Overtrading{}
	}

	first, last := timeRange(trades)
	start := hourIndex(first)
	buckets := hourIndexCeil(last) - start + 1

	// Solo se materializan las horas con trades.
	counts := make(map[int64]int)
	maxCount := 0
	for _, t := range trades {
		idx := hourIndex(t.Timestamp) - start
		counts[idx]++
		if counts[idx] > maxCount {
			maxCount = counts[idx]
		}
	}

	return Overtrading{
		AvgTradesPerHour:   DivOr(float64(len(trades)), float64(buckets), 0),
		MaxTradesInOneHour: maxCount,
	}
}

// timeRange devuelve el primer y último timestamp. Asume trades no vacío y ordenado,
// pero no depende del orden.
func timeRange(trades []Trade) (first, last time.Time) {
	first, last = trades[0].Timestamp, trades[0].Timestamp
	for _, t := range trades[1:] {
		if t.Timestamp.Before(first) {
			first = t.Timestamp
		}
		if t.Timestamp.After(last) {
			last = t.Timestamp
		}
	}
	return first, last
}
