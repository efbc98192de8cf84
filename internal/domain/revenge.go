package domain

// Constantes de política del análisis martingala. Son decisiones de dominio sin
// derivación formal: no asumir que generalizan a otros mercados.
const (
	TiltStreakThreshold = 6   // racha de pérdidas que se considera "tilt"
	TiltMidpoint        = 1.0 // ratio de tamaño neutral (mismo tamaño que la media)
	TiltSensitivity     = 5.0
)

// RevengeTrading mide si el tamaño de los trades crece después de pérdidas.
type RevengeTrading struct {
	MartingaleStats        map[int]float64 `json:"martingale_stats"` // racha previa → tamaño medio
	TiltIndicatorPct       float64         `json:"tilt_indicator_pct"`
	AvgTradeValueAfterLoss *float64        `json:"avg_trade_value_after_loss"`
	AvgTradeValueOverall   float64         `json:"avg_trade_value_overall"`
	RevengeTradeValueRatio *float64        `json:"revenge_trade_value_ratio"`
	MartingaleRatio6Losses float64         `json:"martingale_ratio_6_losses"`
	MaxLossStreak          int             `json:"max_loss_streak"`
}

// ComputeRevenge calcula el ratio de tamaño post-pérdida, la tabla martingala
// (tamaño medio agrupado por racha previa) y el tilt indicator.
func ComputeRevenge(trades []Trade) RevengeTrading {
	values := make([]float64, len(trades))
	for i, t := range trades {
		values[i] = t.Value()
	}
	overall, okOverall := MeanOf(values)

	// Trades cuyo trade inmediatamente anterior fue una pérdida
	var afterLoss []float64
	for i := 1; i < len(trades); i++ {
		if trades[i-1].IsLoss() {
			afterLoss = append(afterLoss, values[i])
		}
	}
	avgAfter, okAfter := MeanOf(afterLoss)

	var revengeRatio *float64
	if okAfter && okOverall {
		revengeRatio = Ptr(SafeDiv(avgAfter, overall))
	}

	stats := martingaleStats(trades, values)
	maxStreak := 0
	for _, s := range LossStreaks(trades) {
		maxStreak = max(maxStreak, s)
	}

	return RevengeTrading{
		MartingaleStats:        stats,
		TiltIndicatorPct:       tiltIndicator(stats, overall, okOverall),
		AvgTradeValueAfterLoss: Ptr(avgAfter, okAfter),
		AvgTradeValueOverall:   finiteOr(overall, 0),
		RevengeTradeValueRatio: revengeRatio,
		MartingaleRatio6Losses: martingaleRatio(stats),
		MaxLossStreak:          maxStreak,
	}
}

// martingaleStats agrupa el valor de cada trade por la racha de pérdidas previa.
func martingaleStats(trades []Trade, values []float64) map[int]float64 {
	groups := make(map[int][]float64)
	for i, streak := range PrevLossStreaks(trades) {
		groups[streak] = append(groups[streak], values[i])
	}

	stats := make(map[int]float64, len(groups))
	for streak, vs := range groups {
		if m, ok := MeanOf(vs); ok {
			stats[streak] = m
		}
	}
	return stats
}

// tiltIndicator: tamaño a racha 6 (o la media global si nunca se llegó a 6) dividido
// por la media global, pasado por la logística (midpoint 1, sensitivity 5) × 100.
// 0 si la media global es 0 o no está definida.
func tiltIndicator(stats map[int]float64, overall float64, ok bool) float64 {
	if !ok || overall == 0 {
		return 0
	}
	size, found := stats[TiltStreakThreshold]
	if !found {
		size = overall
	}
	ratio, ok := SafeDiv(size, overall)
	if !ok {
		return 0
	}
	return Round2(Logistic(ratio, TiltMidpoint, TiltSensitivity) * 100)
}

// martingaleRatio: tamaño a racha 6 / tamaño sin racha. 0 si falta alguno de los dos.
func martingaleRatio(stats map[int]float64) float64 {
	base := stats[0]
	if base <= 0 {
		return 0
	}
	return DivOr(stats[TiltStreakThreshold], base, 0)
}
