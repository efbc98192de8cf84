package domain

import (
	"fmt"
	"time"
)

// Etiquetas del clasificador de sesgos. Conjunto cerrado.
const (
	LabelOvertrader    = "overtrader"
	LabelLossAversion  = "loss_aversion"
	LabelRevengeTrader = "revenge_trader"
	LabelCalmTrader    = "calm_trader"
)

// BiasLabels son las etiquetas en el orden en que se reportan.
var BiasLabels = []string{LabelOvertrader, LabelLossAversion, LabelRevengeTrader, LabelCalmTrader}

// BiasRatios es el porcentaje de trades clasificados en cada perfil (suman ≈ 100).
type BiasRatios struct {
	Overtrader    float64 `json:"overtrader"`
	LossAversion  float64 `json:"loss_aversion"`
	RevengeTrader float64 `json:"revenge_trader"`
	CalmTrader    float64 `json:"calm_trader"`
}

// BiasRatiosFromMap construye BiasRatios a partir de label → porcentaje.
// Las etiquetas desconocidas se ignoran.
func BiasRatiosFromMap(m map[string]float64) BiasRatios {
	return BiasRatios{
		Overtrader:    m[LabelOvertrader],
		LossAversion:  m[LabelLossAversion],
		RevengeTrader: m[LabelRevengeTrader],
		CalmTrader:    m[LabelCalmTrader],
	}
}

// Get devuelve el porcentaje de la etiqueta, 0 si no es una de BiasLabels.
func (b BiasRatios) Get(label string) float64 {
	switch label {
	case LabelOvertrader:
		return b.Overtrader
	case LabelLossAversion:
		return b.LossAversion
	case LabelRevengeTrader:
		return b.RevengeTrader
	case LabelCalmTrader:
		return b.CalmTrader
	}
	return 0
}

// Dominant devuelve la etiqueta con mayor porcentaje (empates: la primera en BiasLabels).
func (b BiasRatios) Dominant() string {
	vals := []float64{b.Overtrader, b.LossAversion, b.RevengeTrader, b.CalmTrader}
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return BiasLabels[best]
}

// Behavioral agrupa las tres familias de métricas de sesgo.
type Behavioral struct {
	Overtrading    Overtrading    `json:"overtrading"`
	LossAversion   LossAversion   `json:"loss_aversion"`
	RevengeTrading RevengeTrading `json:"revenge_trading"`
}

// Summary describe la entrada que produjo el reporte.
type Summary struct {
	RowsRead         int        `json:"rows_read"`
	Trades           int        `json:"trades"`
	RowsDropped      int        `json:"rows_dropped"`
	FirstTrade       *time.Time `json:"first_trade"`
	LastTrade        *time.Time `json:"last_trade"`
	ClassifierRows   int        `json:"classifier_rows"`
	HoldingSamples   int        `json:"holding_samples"`
	OpenLots         int        `json:"open_lots"`
	UnmatchedSellQty float64    `json:"unmatched_sell_qty"`
}

// Report es el documento de métricas completo. Todas las hojas numéricas son finitas
// después de Sanitize.
type Report struct {
	ID                   string               `json:"report_id"`
	GeneratedAt          time.Time            `json:"generated_at"`
	Source               string               `json:"source"`
	Summary              Summary              `json:"summary"`
	BiasTypeRatios       *BiasRatios          `json:"bias_type_ratios"`
	Behavioral           Behavioral           `json:"behavioral"`
	PortfolioMetrics     PortfolioScores      `json:"portfolio_metrics"`
	UserPortfolioMetrics UserPortfolioMetrics `json:"user_portfolio_metrics"`
}

// Metrics es la parte determinista del reporte: siempre se calcula sobre la secuencia completa.
type Metrics struct {
	Behavioral           Behavioral
	PortfolioMetrics     PortfolioScores
	UserPortfolioMetrics UserPortfolioMetrics
	Lots                 LotMatch
}

// ComputeMetrics ejecuta todos los calculadores sobre trades ya normalizados y ordenados.
// Nunca falla: con trades vacío cada métrica toma su fallback.
func ComputeMetrics(trades []Trade) Metrics {
	lots := MatchLots(trades)
	holding := Ptr(lots.AvgHoldingDays())

	return Metrics{
		Behavioral: Behavioral{
			Overtrading:    ComputeOvertrading(trades),
			LossAversion:   ComputeLossAversion(trades),
			RevengeTrading: ComputeRevenge(trades),
		},
		PortfolioMetrics:     ComputePortfolioScores(trades, holding),
		UserPortfolioMetrics: ComputeUserPortfolioMetrics(trades, holding),
		Lots:                 lots,
	}
}

// NewSummary construye el resumen a partir de la normalización y el matching.
func NewSummary(rowsRead int, norm NormalizeResult, lots LotMatch, classifierRows int) Summary {
	s := Summary{
		RowsRead:         rowsRead,
		Trades:           len(norm.Trades),
		RowsDropped:      norm.Dropped,
		ClassifierRows:   classifierRows,
		HoldingSamples:   len(lots.Samples),
		OpenLots:         len(lots.OpenLots),
		UnmatchedSellQty: lots.UnmatchedSellQty,
	}
	if len(norm.Trades) > 0 {
		first, last := timeRange(norm.Trades)
		s.FirstTrade, s.LastTrade = &first, &last
	}
	return s
}

// Sanitize sustituye cualquier hoja no finita por el fallback de su métrica y
// recorta los scores a [0, 100]. Es idempotente.
func (r *Report) Sanitize() {
	ot := &r.Behavioral.Overtrading
	ot.AvgTradesPerHour = finiteOr(ot.AvgTradesPerHour, 0)

	la := &r.Behavioral.LossAversion
	la.AvgAbsLoss = finitePtr(la.AvgAbsLoss)
	la.AvgWin = finitePtr(la.AvgWin)
	la.DispositionRatio = finiteOr(la.DispositionRatio, dispositionFallback)
	la.WinRatePct = finiteOr(la.WinRatePct, 0)

	rv := &r.Behavioral.RevengeTrading
	for k, v := range rv.MartingaleStats {
		if !IsFinite(v) {
			delete(rv.MartingaleStats, k)
		}
	}
	if rv.MartingaleStats == nil {
		rv.MartingaleStats = map[int]float64{}
	}
	rv.TiltIndicatorPct = clampScore(rv.TiltIndicatorPct, 0)
	rv.AvgTradeValueAfterLoss = finitePtr(rv.AvgTradeValueAfterLoss)
	rv.AvgTradeValueOverall = finiteOr(rv.AvgTradeValueOverall, 0)
	rv.RevengeTradeValueRatio = finitePtr(rv.RevengeTradeValueRatio)
	rv.MartingaleRatio6Losses = finiteOr(rv.MartingaleRatio6Losses, 0)

	pm := &r.PortfolioMetrics
	pm.ConsistencyScore = clampScore(pm.ConsistencyScore, consistencyMaxScore)
	pm.HoldingPatienceScore = clampScore(pm.HoldingPatienceScore, 0)
	pm.RiskReactivityScore = clampScore(pm.RiskReactivityScore, riskNeutralScore)
	pm.TradeFrequencyScore = clampScore(pm.TradeFrequencyScore, 0)

	up := &r.UserPortfolioMetrics
	up.AvgTradesPerWeek = finitePtr(up.AvgTradesPerWeek)
	up.AvgTradesPerMonth = finitePtr(up.AvgTradesPerMonth)
	up.AvgTradeSize = finiteOr(up.AvgTradeSize, 0)
	up.TradeSizeVariability = finitePtr(up.TradeSizeVariability)
	up.PctTradesAfterLoss = finitePtr(up.PctTradesAfterLoss)
	up.AvgHoldingPeriodDays = finitePtr(up.AvgHoldingPeriodDays)

	r.Summary.UnmatchedSellQty = finiteOr(r.Summary.UnmatchedSellQty, 0)

	if b := r.BiasTypeRatios; b != nil {
		for _, p := range []*float64{&b.Overtrader, &b.LossAversion, &b.RevengeTrader, &b.CalmTrader} {
			*p = finiteOr(*p, 0)
		}
	}
}

// Validate devuelve ErrNonFinite si alguna hoja numérica es NaN o ±Inf.
func (r *Report) Validate() error {
	for name, v := range r.numericLeaves() {
		if !IsFinite(v) {
			return fmt.Errorf("domain.Report.Validate: %s: %w", name, ErrNonFinite)
		}
	}
	return nil
}

func (r *Report) numericLeaves() map[string]float64 {
	leaves := map[string]float64{
		"overtrading.avg_trades_per_hour":         r.Behavioral.Overtrading.AvgTradesPerHour,
		"loss_aversion.disposition_ratio":         r.Behavioral.LossAversion.DispositionRatio,
		"loss_aversion.win_rate_pct":              r.Behavioral.LossAversion.WinRatePct,
		"revenge_trading.tilt_indicator_pct":      r.Behavioral.RevengeTrading.TiltIndicatorPct,
		"revenge_trading.avg_trade_value_overall": r.Behavioral.RevengeTrading.AvgTradeValueOverall,
		"revenge_trading.martingale_ratio_6":      r.Behavioral.RevengeTrading.MartingaleRatio6Losses,
		"portfolio.consistency_score":             r.PortfolioMetrics.ConsistencyScore,
		"portfolio.holding_patience_score":        r.PortfolioMetrics.HoldingPatienceScore,
		"portfolio.risk_reactivity_score":         r.PortfolioMetrics.RiskReactivityScore,
		"portfolio.trade_frequency_score":         r.PortfolioMetrics.TradeFrequencyScore,
		"user.avg_trade_size":                     r.UserPortfolioMetrics.AvgTradeSize,
		"summary.unmatched_sell_qty":              r.Summary.UnmatchedSellQty,
	}
	optional := map[string]*float64{
		"loss_aversion.avg_abs_loss":                 r.Behavioral.LossAversion.AvgAbsLoss,
		"loss_aversion.avg_win":                      r.Behavioral.LossAversion.AvgWin,
		"revenge_trading.avg_trade_value_after_loss": r.Behavioral.RevengeTrading.AvgTradeValueAfterLoss,
		"revenge_trading.revenge_trade_value_ratio":  r.Behavioral.RevengeTrading.RevengeTradeValueRatio,
		"user.avg_trades_per_week":                   r.UserPortfolioMetrics.AvgTradesPerWeek,
		"user.avg_trades_per_month":                  r.UserPortfolioMetrics.AvgTradesPerMonth,
		"user.trade_size_variability":                r.UserPortfolioMetrics.TradeSizeVariability,
		"user.pct_trades_after_loss":                 r.UserPortfolioMetrics.PctTradesAfterLoss,
		"user.avg_holding_period_days":               r.UserPortfolioMetrics.AvgHoldingPeriodDays,
	}
	for name, p := range optional {
		if p != nil {
			leaves[name] = *p
		}
	}
	for k, v := range r.Behavioral.RevengeTrading.MartingaleStats {
		leaves[fmt.Sprintf("revenge_trading.martingale_stats[%d]", k)] = v
	}
	if b := r.BiasTypeRatios; b != nil {
		leaves["bias.overtrader"] = b.Overtrader
		leaves["bias.loss_aversion"] = b.LossAversion
		leaves["bias.revenge_trader"] = b.RevengeTrader
		leaves["bias.calm_trader"] = b.CalmTrader
	}
	return leaves
}

// clampScore recorta un score a [0, 100]; si no es finito usa fallback.
func clampScore(v, fallback float64) float64 {
	if !IsFinite(v) {
		return fallback
	}
	return Round2(Clamp01(v/100) * 100)
}
