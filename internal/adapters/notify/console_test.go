package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradebias/internal/adapters/notify"
	"github.com/alejandrodnm/tradebias/internal/domain"
)

func makeReport(source string, trades int, ratios *domain.BiasRatios) domain.Report {
	avgWin := 10.0
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	last := first.Add(2 * time.Hour)
	return domain.Report{
		ID:             "11111111-2222-3333-4444-555555555555",
		GeneratedAt:    time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
		Source:         source,
		Summary:        domain.Summary{RowsRead: trades, Trades: trades, FirstTrade: &first, LastTrade: &last},
		BiasTypeRatios: ratios,
		Behavioral: domain.Behavioral{
			Overtrading:  domain.Overtrading{AvgTradesPerHour: 1, MaxTradesInOneHour: 1},
			LossAversion: domain.LossAversion{AvgWin: &avgWin, DispositionRatio: 0.5},
			RevengeTrading: domain.RevengeTrading{
				MartingaleStats:  map[int]float64{0: 100, 1: 90},
				TiltIndicatorPct: 50,
			},
		},
		PortfolioMetrics: domain.PortfolioScores{
			ConsistencyScore: 100, HoldingPatienceScore: 4, RiskReactivityScore: 50, TradeFrequencyScore: 15.05,
		},
	}
}

// --- Console ---

func TestConsole_Notify_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	err := n.Notify(context.Background(), makeReport("ledger.csv", 3, &domain.BiasRatios{Overtrader: 70, CalmTrader: 30}))
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "ledger.csv: 3 trades")
	assert.Contains(t, out, "overtrader 70%")
	assert.Contains(t, out, "tilt 50.00")
	assert.Contains(t, out, "F:15")
}

func TestConsole_Notify_Table(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	err := n.Notify(context.Background(), makeReport("ledger.csv", 3, nil))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "bias classifier unavailable")
	assert.Contains(t, out, "15.05")
	assert.Contains(t, out, "n/a", "avg |loss| es null")
	assert.Contains(t, out, "2024-01-01 02:00:00")
	assert.Contains(t, out, "90.00", "tabla martingala")
}

func TestConsole_Notify_NoTrades(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	r := makeReport("empty.csv", 0, nil)
	r.Summary.RowsDropped = 4
	require.NoError(t, n.Notify(context.Background(), r))
	assert.Contains(t, buf.String(), "no valid trades (4 rows dropped)")
}

func TestConsole_PrintHistory(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	longSource := "/very/long/path/to/some/deeply/nested/ledger.csv"
	n.PrintHistory([]domain.Report{
		makeReport(longSource, 3, &domain.BiasRatios{RevengeTrader: 80, CalmTrader: 20}),
	})

	out := buf.String()
	assert.Contains(t, out, "revenge_trader 80%")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "11111111-2222-3333-4444-555555555555")
}

func TestConsole_PrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, true).PrintHistory(nil)
	assert.Contains(t, buf.String(), "No reports in range.")
}

func TestConsole_PrintBatch(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	ok := makeReport("a.csv", 3, nil)
	n.PrintBatch([]notify.BatchResult{
		{Source: "a.csv", Report: &ok},
		{Source: "b.csv", Err: errors.New("missing required columns: side")},
	})

	out := buf.String()
	assert.Contains(t, out, "a.csv")
	assert.Contains(t, out, "ERR missing required columns")
	assert.Contains(t, out, "1/2 ledgers analyzed")
}

// --- JSON ---

func TestJSON_Notify(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewJSONWriter(&buf, true)

	require.NoError(t, n.Notify(context.Background(), makeReport("ledger.csv", 3, nil)))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "ledger.csv", doc["source"])
	assert.Nil(t, doc["bias_type_ratios"])
	assert.Contains(t, buf.String(), "\n  \"report_id\"")
}

func TestJSON_Notify_RejectsNonFinite(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewJSONWriter(&buf, false)

	r := makeReport("ledger.csv", 3, nil)
	r.PortfolioMetrics.ConsistencyScore = math.NaN()

	err := n.Notify(context.Background(), r)
	assert.ErrorIs(t, err, domain.ErrNonFinite)
	assert.Empty(t, buf.String())
}
