package domain

import "math"

// dispositionFallback es el ratio neutral cuando no hay ganancias (o pérdidas) con qué comparar.
const dispositionFallback = 1.0

// LossAversion compara la magnitud media de pérdidas con la de ganancias.
type LossAversion struct {
	AvgAbsLoss       *float64 `json:"avg_abs_loss"`
	AvgWin           *float64 `json:"avg_win"`
	DispositionRatio float64  `json:"disposition_ratio"` // > 1: las pérdidas corren más que las ganancias
	WinCount         int      `json:"win_count"`
	LossCount        int      `json:"loss_count"`
	WinRatePct       float64  `json:"win_rate_pct"`
}

// ComputeLossAversion calcula avg_win (pl > 0), avg_abs_loss (pl < 0) y su ratio.
// Los trades con pl == 0 no cuentan como ganancia ni como pérdida.
// disposition_ratio = avg_abs_loss / avg_win, o 1.0 si alguna de las dos no está definida
// o avg_win es 0.
func ComputeLossAversion(trades []Trade) LossAversion {
	var wins, losses []float64
	for _, t := range trades {
		switch {
		case t.IsWin():
			wins = append(wins, t.ProfitLoss)
		case t.IsLoss():
			losses = append(losses, math.Abs(t.ProfitLoss))
		}
	}

	avgWin, okWin := MeanOf(wins)
	avgLoss, okLoss := MeanOf(losses)

	ratio := dispositionFallback
	if okWin && okLoss {
		ratio = DivOr(avgLoss, avgWin, dispositionFallback)
	}

	return LossAversion{
		AvgAbsLoss:       Ptr(avgLoss, okLoss),
		AvgWin:           Ptr(avgWin, okWin),
		DispositionRatio: ratio,
		WinCount:         len(wins),
		LossCount:        len(losses),
		WinRatePct:       Round2(100 * DivOr(float64(len(wins)), float64(len(trades)), 0)),
	}
}
