package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

// Console implementa ports.Notifier con salida legible.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
// table=false imprime una línea por reporte; table=true imprime las tablas completas.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el reporte en el modo configurado.
func (c *Console) Notify(_ context.Context, r domain.Report) error {
	if r.Summary.Trades == 0 {
		fmt.Fprintf(c.out, "[%s] %s: no valid trades (%d rows dropped)\n",
			r.GeneratedAt.Format("15:04:05"), r.Source, r.Summary.RowsDropped)
		return nil
	}
	if c.table {
		c.printFull(r)
	} else {
		c.printCompact(r)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(r domain.Report) {
	pm := r.PortfolioMetrics
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s: %d trades", r.GeneratedAt.Format("15:04:05"), r.Source, r.Summary.Trades)
	fmt.Fprintf(&sb, " | bias: %s", biasLabel(r.BiasTypeRatios))
	fmt.Fprintf(&sb, " | tilt %.2f", r.Behavioral.RevengeTrading.TiltIndicatorPct)
	fmt.Fprintf(&sb, " | disp %.2f", r.Behavioral.LossAversion.DispositionRatio)
	fmt.Fprintf(&sb, " | C:%.0f H:%.0f R:%.0f F:%.0f",
		pm.ConsistencyScore, pm.HoldingPatienceScore, pm.RiskReactivityScore, pm.TradeFrequencyScore)
	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime resumen, sesgos, métricas de comportamiento y scores.
func (c *Console) printFull(r domain.Report) {
	s := r.Summary
	fmt.Fprintf(c.out, "\n[%s] %s — %d trades (%d rows read, %d dropped)\n",
		r.GeneratedAt.Format("15:04:05"), r.Source, s.Trades, s.RowsRead, s.RowsDropped)
	if s.FirstTrade != nil && s.LastTrade != nil {
		fmt.Fprintf(c.out, "  range: %s → %s\n",
			s.FirstTrade.Format(time.DateTime), s.LastTrade.Format(time.DateTime))
	}

	c.printBias(r.BiasTypeRatios)
	c.printBehavioral(r.Behavioral)
	c.printScores(r.PortfolioMetrics)
	c.printMartingale(r.Behavioral.RevengeTrading.MartingaleStats)
	c.printUser(r.UserPortfolioMetrics, s)
}

func (c *Console) printBias(b *domain.BiasRatios) {
	if b == nil {
		fmt.Fprintln(c.out, "\n  bias classifier unavailable")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Overtrader %", "Loss aversion %", "Revenge %", "Calm %", "Dominant")
	table.Append(
		pct(b.Overtrader), pct(b.LossAversion), pct(b.RevengeTrader), pct(b.CalmTrader), b.Dominant(),
	)
	table.Render()
}

func (c *Console) printBehavioral(b domain.Behavioral) {
	ot, la, rv := b.Overtrading, b.LossAversion, b.RevengeTrading

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("avg trades/hour", fmt.Sprintf("%.2f", ot.AvgTradesPerHour))
	table.Append("max trades in one hour", fmt.Sprintf("%d", ot.MaxTradesInOneHour))
	table.Append("avg win", optional(la.AvgWin))
	table.Append("avg |loss|", optional(la.AvgAbsLoss))
	table.Append("disposition ratio", fmt.Sprintf("%.2f", la.DispositionRatio))
	table.Append("win rate", pct(la.WinRatePct))
	table.Append("avg value after loss", optional(rv.AvgTradeValueAfterLoss))
	table.Append("avg value overall", fmt.Sprintf("%.2f", rv.AvgTradeValueOverall))
	table.Append("revenge value ratio", optional(rv.RevengeTradeValueRatio))
	table.Append("martingale ratio (6L)", fmt.Sprintf("%.2f", rv.MartingaleRatio6Losses))
	table.Append("max loss streak", fmt.Sprintf("%d", rv.MaxLossStreak))
	table.Append("tilt indicator", pct(rv.TiltIndicatorPct))
	table.Render()
}

func (c *Console) printScores(pm domain.PortfolioScores) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Consistency", "Holding patience", "Risk reactivity", "Trade frequency")
	table.Append(
		fmt.Sprintf("%.2f", pm.ConsistencyScore),
		fmt.Sprintf("%.2f", pm.HoldingPatienceScore),
		fmt.Sprintf("%.2f", pm.RiskReactivityScore),
		fmt.Sprintf("%.2f", pm.TradeFrequencyScore),
	)
	table.Render()
	fmt.Fprintln(c.out, "  Scores 0–100 | risk reactivity > 50 = sizes up after losses")
}

func (c *Console) printMartingale(stats map[int]float64) {
	if len(stats) == 0 {
		return
	}
	streaks := make([]int, 0, len(stats))
	for k := range stats {
		streaks = append(streaks, k)
	}
	slices.Sort(streaks)

	table := tablewriter.NewWriter(c.out)
	table.Header("Prev losses", "Avg trade value")
	for _, k := range streaks {
		table.Append(fmt.Sprintf("%d", k), fmt.Sprintf("%.2f", stats[k]))
	}
	table.Render()
}

func (c *Console) printUser(u domain.UserPortfolioMetrics, s domain.Summary) {
	fmt.Fprintf(c.out, "  trades/week %s | trades/month %s | avg size %.2f ± %s\n",
		optional(u.AvgTradesPerWeek), optional(u.AvgTradesPerMonth), u.AvgTradeSize, optional(u.TradeSizeVariability))
	fmt.Fprintf(c.out, "  holding %s days (%d matches, %d open lots, %.4g unmatched sell qty)\n\n",
		optional(u.AvgHoldingPeriodDays), s.HoldingSamples, s.OpenLots, s.UnmatchedSellQty)
}

// PrintHistory imprime la evolución de reportes guardados, del más reciente al más antiguo.
func (c *Console) PrintHistory(reports []domain.Report) {
	if len(reports) == 0 {
		fmt.Fprintln(c.out, "\n  No reports in range.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Generated", "Source", "Trades", "Bias", "Tilt", "Disp", "Cons", "Hold", "Risk", "Freq", "ID")
	for _, r := range reports {
		pm := r.PortfolioMetrics
		table.Append(
			r.GeneratedAt.Local().Format("2006-01-02 15:04"),
			compactName(r.Source, 30),
			fmt.Sprintf("%d", r.Summary.Trades),
			biasLabel(r.BiasTypeRatios),
			fmt.Sprintf("%.2f", r.Behavioral.RevengeTrading.TiltIndicatorPct),
			fmt.Sprintf("%.2f", r.Behavioral.LossAversion.DispositionRatio),
			fmt.Sprintf("%.0f", pm.ConsistencyScore),
			fmt.Sprintf("%.0f", pm.HoldingPatienceScore),
			fmt.Sprintf("%.0f", pm.RiskReactivityScore),
			fmt.Sprintf("%.0f", pm.TradeFrequencyScore),
			r.ID,
		)
	}
	table.Render()
}

// BatchResult es el resultado de analizar una fuente dentro de un lote.
type BatchResult struct {
	Source string
	Report *domain.Report
	Err    error
}

// PrintBatch imprime una fila por fuente del lote, con el error si falló.
func (c *Console) PrintBatch(results []BatchResult) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Source", "Trades", "Bias", "Tilt", "Cons", "Hold", "Risk", "Freq", "Status")

	failed := 0
	for _, res := range results {
		if res.Err != nil || res.Report == nil {
			failed++
			msg := "no report"
			if res.Err != nil {
				msg = compactName(res.Err.Error(), 40)
			}
			table.Append(compactName(res.Source, 30), "-", "-", "-", "-", "-", "-", "-", "ERR "+msg)
			continue
		}
		r := res.Report
		pm := r.PortfolioMetrics
		table.Append(
			compactName(res.Source, 30),
			fmt.Sprintf("%d", r.Summary.Trades),
			biasLabel(r.BiasTypeRatios),
			fmt.Sprintf("%.2f", r.Behavioral.RevengeTrading.TiltIndicatorPct),
			fmt.Sprintf("%.0f", pm.ConsistencyScore),
			fmt.Sprintf("%.0f", pm.HoldingPatienceScore),
			fmt.Sprintf("%.0f", pm.RiskReactivityScore),
			fmt.Sprintf("%.0f", pm.TradeFrequencyScore),
			"OK",
		)
	}
	table.Render()
	fmt.Fprintf(c.out, "  %d/%d ledgers analyzed\n", len(results)-failed, len(results))
}

// --- helpers ---

func biasLabel(b *domain.BiasRatios) string {
	if b == nil {
		return "n/a"
	}
	label := b.Dominant()
	return fmt.Sprintf("%s %.0f%%", label, b.Get(label))
}

func optional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func pct(v float64) string { return fmt.Sprintf("%.2f%%", v) }

// compactName recorta s a n runes con "..." al final.
func compactName(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
