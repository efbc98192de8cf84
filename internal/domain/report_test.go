package domain

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildReport(trades []Trade) *Report {
	m := ComputeMetrics(trades)
	norm := NormalizeResult{Trades: trades}
	return &Report{
		ID:                   "test",
		GeneratedAt:          t0,
		Summary:              NewSummary(len(trades), norm, m.Lots, len(trades)),
		Behavioral:           m.Behavioral,
		PortfolioMetrics:     m.PortfolioMetrics,
		UserPortfolioMetrics: m.UserPortfolioMetrics,
	}
}

// --- End-to-end ---

func TestComputeMetrics_ThreeRowLedger(t *testing.T) {
	r := buildReport(threeRowFixture())
	r.Sanitize()
	require.NoError(t, r.Validate())

	ot := r.Behavioral.Overtrading
	assert.InDelta(t, 1.0, ot.AvgTradesPerHour, 1e-9)
	assert.Equal(t, 1, ot.MaxTradesInOneHour)

	la := r.Behavioral.LossAversion
	require.NotNil(t, la.AvgWin)
	require.NotNil(t, la.AvgAbsLoss)
	assert.InDelta(t, 10.0, *la.AvgWin, 1e-9)
	assert.InDelta(t, 5.0, *la.AvgAbsLoss, 1e-9)
	assert.InDelta(t, 0.5, la.DispositionRatio, 1e-9)

	// BUY A 00:00 → SELL A 01:00; SELL B sin lote
	require.NotNil(t, r.UserPortfolioMetrics.AvgHoldingPeriodDays)
	assert.InDelta(t, 1.0/24, *r.UserPortfolioMetrics.AvgHoldingPeriodDays, 1e-9)
	assert.Equal(t, 1, r.Summary.HoldingSamples)
	assert.InDelta(t, 1.0, r.Summary.UnmatchedSellQty, 1e-9)
	assert.Zero(t, r.Summary.OpenLots)

	pm := r.PortfolioMetrics
	assert.Equal(t, 4.0, pm.HoldingPatienceScore)
	assert.Equal(t, 100.0, pm.ConsistencyScore)
	assert.Equal(t, 50.0, pm.RiskReactivityScore)
	assert.Equal(t, 15.05, pm.TradeFrequencyScore)

	rv := r.Behavioral.RevengeTrading
	assert.Equal(t, 50.0, rv.TiltIndicatorPct)
	assert.Nil(t, rv.RevengeTradeValueRatio)

	require.NotNil(t, r.Summary.FirstTrade)
	assert.Equal(t, t0, *r.Summary.FirstTrade)
	assert.Equal(t, t0.Add(2*time.Hour), *r.Summary.LastTrade)
}

func TestComputeMetrics_EmptyUsesFallbacks(t *testing.T) {
	r := buildReport(nil)
	r.Sanitize()

	require.NoError(t, r.Validate())
	assert.Equal(t, 100.0, r.PortfolioMetrics.ConsistencyScore)
	assert.Equal(t, 50.0, r.PortfolioMetrics.RiskReactivityScore)
	assert.Zero(t, r.PortfolioMetrics.HoldingPatienceScore)
	assert.Zero(t, r.PortfolioMetrics.TradeFrequencyScore)
	assert.Equal(t, 1.0, r.Behavioral.LossAversion.DispositionRatio)
	assert.NotNil(t, r.Behavioral.RevengeTrading.MartingaleStats)
	assert.Nil(t, r.Summary.FirstTrade)
}

// --- Sanitize / Validate ---

func TestReport_SanitizeReplacesNonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	r := &Report{
		BiasTypeRatios: &BiasRatios{Overtrader: nan, CalmTrader: 100},
		Behavioral: Behavioral{
			Overtrading:  Overtrading{AvgTradesPerHour: inf},
			LossAversion: LossAversion{DispositionRatio: nan, AvgWin: &inf},
			RevengeTrading: RevengeTrading{
				MartingaleStats:  map[int]float64{0: 10, 3: nan},
				TiltIndicatorPct: 250,
			},
		},
		PortfolioMetrics: PortfolioScores{
			ConsistencyScore:    nan,
			RiskReactivityScore: -inf,
			TradeFrequencyScore: -3,
		},
		UserPortfolioMetrics: UserPortfolioMetrics{AvgTradeSize: nan, PctTradesAfterLoss: &nan},
	}
	require.ErrorIs(t, r.Validate(), ErrNonFinite)

	r.Sanitize()

	require.NoError(t, r.Validate())
	assert.Zero(t, r.Behavioral.Overtrading.AvgTradesPerHour)
	assert.Equal(t, 1.0, r.Behavioral.LossAversion.DispositionRatio)
	assert.Nil(t, r.Behavioral.LossAversion.AvgWin)
	assert.Equal(t, map[int]float64{0: 10}, r.Behavioral.RevengeTrading.MartingaleStats)
	assert.Equal(t, 100.0, r.Behavioral.RevengeTrading.TiltIndicatorPct)
	assert.Equal(t, 100.0, r.PortfolioMetrics.ConsistencyScore)
	assert.Equal(t, 50.0, r.PortfolioMetrics.RiskReactivityScore)
	assert.Zero(t, r.PortfolioMetrics.TradeFrequencyScore)
	assert.Zero(t, r.UserPortfolioMetrics.AvgTradeSize)
	assert.Nil(t, r.UserPortfolioMetrics.PctTradesAfterLoss)
	assert.Zero(t, r.BiasTypeRatios.Overtrader)
}

func TestReport_SanitizeIsIdempotent(t *testing.T) {
	r := buildReport(threeRowFixture())
	r.Sanitize()
	first, err := json.Marshal(r)
	require.NoError(t, err)

	r.Sanitize()
	second, err := json.Marshal(r)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestReport_JSONShape(t *testing.T) {
	r := buildReport(threeRowFixture())
	r.Sanitize()

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Contains(t, doc, "bias_type_ratios")
	assert.Nil(t, doc["bias_type_ratios"])
	behavioral := doc["behavioral"].(map[string]any)
	assert.Contains(t, behavioral, "overtrading")
	assert.Contains(t, behavioral, "loss_aversion")
	assert.Contains(t, behavioral, "revenge_trading")
	assert.Contains(t, doc, "portfolio_metrics")
	assert.Contains(t, doc, "user_portfolio_metrics")
	revenge := behavioral["revenge_trading"].(map[string]any)
	assert.Nil(t, revenge["revenge_trade_value_ratio"])
}

// Ledgers aleatorios con valores extremos: el documento siempre sale finito y con
// scores dentro de [0, 100].
func TestComputeMetrics_AdversarialLedgersStayFinite(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	extremes := []float64{0, 1e-300, 1e300, math.MaxFloat64, -math.MaxFloat64, 1e-9, -1e-9}

	pick := func() float64 {
		if rng.IntN(4) == 0 {
			return extremes[rng.IntN(len(extremes))]
		}
		return rng.NormFloat64() * 1000
	}

	for iter := 0; iter < 200; iter++ {
		n := rng.IntN(40)
		trades := make([]Trade, n)
		ts := t0
		for i := range trades {
			ts = ts.Add(time.Duration(rng.IntN(int(72 * time.Hour))))
			side := SideBuy
			if rng.IntN(2) == 0 {
				side = SideSell
			}
			qty := math.Abs(pick())
			if qty == 0 {
				qty = 1
			}
			trades[i] = Trade{
				Timestamp:  ts,
				Asset:      []string{"A", "B", ""}[rng.IntN(3)],
				Side:       side,
				Quantity:   qty,
				EntryPrice: pick(),
				ProfitLoss: pick(),
			}
		}

		r := buildReport(trades)
		r.Sanitize()
		require.NoError(t, r.Validate(), "iter %d", iter)

		for name, s := range map[string]float64{
			"consistency": r.PortfolioMetrics.ConsistencyScore,
			"patience":    r.PortfolioMetrics.HoldingPatienceScore,
			"risk":        r.PortfolioMetrics.RiskReactivityScore,
			"frequency":   r.PortfolioMetrics.TradeFrequencyScore,
			"tilt":        r.Behavioral.RevengeTrading.TiltIndicatorPct,
		} {
			assert.GreaterOrEqual(t, s, 0.0, "%s iter %d", name, iter)
			assert.LessOrEqual(t, s, 100.0, "%s iter %d", name, iter)
		}

		_, err := json.Marshal(r)
		require.NoError(t, err)
	}
}

// --- BiasRatios ---

func TestBiasRatios_Dominant(t *testing.T) {
	b := BiasRatiosFromMap(map[string]float64{
		LabelOvertrader:    10,
		LabelRevengeTrader: 60,
		LabelCalmTrader:    30,
		"unknown":          99,
	})
	assert.Equal(t, LabelRevengeTrader, b.Dominant())
	assert.Equal(t, 60.0, b.Get(LabelRevengeTrader))
	assert.Zero(t, b.Get("unknown"))
	assert.Equal(t, LabelOvertrader, BiasRatios{}.Dominant())
}
