package domain

// portfolio.go: scores de comportamiento 0–100.
//
// Cada score es round2(clamp01(v) × 100). Con datos insuficientes cada score cae a
// su fallback: consistency 100, risk reactivity 50, holding patience 0.

import (
	"math"
	"slices"
	"time"
)

const (
	frequencyLogScale   = 4.0  // log10(trades/día + 1) / 4 → satura en ~10k trades/día
	consistencyEpsilon  = 1e-9 // evita dividir por una media diaria 0
	riskNeutralScore    = 50.0
	consistencyMaxScore = 100.0
	riskMidpoint        = 1.0
	riskSensitivity     = 1.0
	maxAbsZ             = 50.0 // exp(50) sigue siendo finito; sigmoid(50) ≈ 1
)

// PortfolioScores son los cuatro scores acotados del portfolio.
type PortfolioScores struct {
	ConsistencyScore     float64 `json:"consistency_score"`
	HoldingPatienceScore float64 `json:"holding_patience_score"`
	RiskReactivityScore  float64 `json:"risk_reactivity_score"`
	TradeFrequencyScore  float64 `json:"trade_frequency_score"`
}

// ComputePortfolioScores calcula los cuatro scores. avgHoldingDays es la media FIFO
// de holding period (nil si no hubo matches, en cuyo caso patience = 0).
func ComputePortfolioScores(trades []Trade, avgHoldingDays *float64) PortfolioScores {
	h := 0.0
	if avgHoldingDays != nil {
		h = *avgHoldingDays
	}
	return PortfolioScores{
		ConsistencyScore:     ConsistencyScore(trades),
		HoldingPatienceScore: HoldingPatienceScore(h),
		RiskReactivityScore:  RiskReactivityScore(trades),
		TradeFrequencyScore:  TradeFrequencyScore(trades),
	}
}

// TradeFrequencyScore: trades por día sobre el rango observado (mínimo 1 día),
// comprimido con log10 para que los muy activos saturen en vez de divergir.
func TradeFrequencyScore(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	first, last := timeRange(trades)
	spanDays := math.Max(DaysBetween(first, last), 1)
	perDay := float64(len(trades)) / spanDays
	return Score(math.Log10(perDay+1) / frequencyLogScale)
}

// ConsistencyScore: 1 - cv/2 sobre los trades por día natural. Con menos de 2 días
// la varianza no está definida y el score es 100.
func ConsistencyScore(trades []Trade) float64 {
	counts := dailyCounts(trades)
	if len(counts) < 2 {
		return consistencyMaxScore
	}
	mean, _ := MeanOf(counts)
	std, _ := PopStdDev(counts)
	cv := std / (mean + consistencyEpsilon)
	return Score(1 - cv/2)
}

// RiskReactivityScore: z-score del tamaño medio post-pérdida frente a la distribución
// global de tamaños, mapeado con logistic(exp(z), 1, 1). Sin trades post-pérdida o
// con desviación 0 devuelve 50.
func RiskReactivityScore(trades []Trade) float64 {
	values := make([]float64, len(trades))
	var afterLoss []float64
	for i, t := range trades {
		values[i] = t.Value()
		if i > 0 && trades[i-1].IsLoss() {
			afterLoss = append(afterLoss, values[i])
		}
	}

	mean, okMean := MeanOf(values)
	std, okStd := PopStdDev(values)
	meanAfter, okAfter := MeanOf(afterLoss)
	if !okMean || !okStd || !okAfter || std <= 0 {
		return riskNeutralScore
	}

	z, ok := SafeDiv(meanAfter-mean, std)
	if !ok {
		return riskNeutralScore
	}
	z = math.Max(-maxAbsZ, math.Min(maxAbsZ, z))
	return Score(Logistic(math.Exp(z), riskMidpoint, riskSensitivity))
}

// HoldingPatienceScore: h/(h+1), asintótico a 100 cuando el holding crece.
func HoldingPatienceScore(avgHoldingDays float64) float64 {
	if !IsFinite(avgHoldingDays) || avgHoldingDays <= 0 {
		return 0
	}
	return Score(avgHoldingDays / (avgHoldingDays + 1))
}

// dailyCounts cuenta trades por día natural (UTC).
func dailyCounts(trades []Trade) []float64 {
	byDay := make(map[string]int)
	var order []string
	for _, t := range trades {
		k := t.Timestamp.Format(time.DateOnly)
		if _, ok := byDay[k]; !ok {
			order = append(order, k)
		}
		byDay[k]++
	}
	counts := make([]float64, len(order))
	for i, k := range order {
		counts[i] = float64(byDay[k])
	}
	return counts
}

// UserPortfolioMetrics son agregados crudos de actividad, sin normalizar.
type UserPortfolioMetrics struct {
	AvgTradesPerWeek     *float64 `json:"avg_trades_per_week"`
	AvgTradesPerMonth    *float64 `json:"avg_trades_per_month"`
	AvgTradeSize         float64  `json:"avg_trade_size"`
	TradeSizeVariability *float64 `json:"trade_size_variability"`
	PctTradesAfterLoss   *float64 `json:"pct_trades_after_loss"` // fracción 0–1 de trades que siguen a una pérdida
	AvgHoldingPeriodDays *float64 `json:"avg_holding_period_days"`
}

// ComputeUserPortfolioMetrics agrega actividad por semana (lunes a domingo) y por mes,
// tamaño medio de trade y su dispersión, y la fracción de trades que siguen a una pérdida.
// Las semanas y meses sin trades no cuentan en la media.
func ComputeUserPortfolioMetrics(trades []Trade, avgHoldingDays *float64) UserPortfolioMetrics {
	weeks := make(map[[2]int]float64)
	months := make(map[[2]int]float64)
	values := make([]float64, len(trades))
	afterLoss := 0
	for i, t := range trades {
		y, w := t.Timestamp.ISOWeek()
		weeks[[2]int{y, w}]++
		months[[2]int{t.Timestamp.Year(), int(t.Timestamp.Month())}]++
		values[i] = t.Value()
		if i > 0 && trades[i-1].IsLoss() {
			afterLoss++
		}
	}

	avgSize, _ := MeanOf(values)
	var pctAfterLoss *float64
	if len(trades) >= 2 {
		pctAfterLoss = Ptr(SafeDiv(float64(afterLoss), float64(len(trades)-1)))
	}

	return UserPortfolioMetrics{
		AvgTradesPerWeek:     Ptr(MeanOf(mapValues(weeks))),
		AvgTradesPerMonth:    Ptr(MeanOf(mapValues(months))),
		AvgTradeSize:         avgSize,
		TradeSizeVariability: Ptr(PopStdDev(values)),
		PctTradesAfterLoss:   pctAfterLoss,
		AvgHoldingPeriodDays: finitePtr(avgHoldingDays),
	}
}

func mapValues[K comparable](m map[K]float64) []float64 {
	out := make([]float64, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
