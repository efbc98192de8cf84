package domain

// lots.go: matcher FIFO de lotes para holding periods.
//
// Cada BUY abre un lote en la cola de su asset; cada SELL consume lotes desde el
// frente. Un lote parcialmente consumido queda al frente para el siguiente SELL.
// Cada match (total o parcial) produce una muestra de holding period.

import "time"

const (
	// lotEpsilon: un lote con remaining <= lotEpsilon se considera agotado.
	lotEpsilon = 1e-9
)

// Lot es una posición abierta creada por un BUY.
type Lot struct {
	Asset     string
	OpenedAt  time.Time
	Remaining float64
}

// HoldingSample es un match BUY→SELL: cuántos días estuvo abierta la cantidad matcheada.
type HoldingSample struct {
	Asset    string
	Days     float64
	Quantity float64
}

// LotMatch es el resultado del matching FIFO sobre toda la secuencia.
type LotMatch struct {
	Samples          []HoldingSample
	UnmatchedSellQty float64 // cantidad vendida sin lote previo (se ignora en silencio)
	OpenLots         []Lot   // lotes que siguen abiertos al final, por asset y en orden FIFO
}

// lotQueue es una cola doble sobre slice: push al final, pop del frente.
// El frente avanza con head y el slice se compacta cuando la mitad está consumida.
type lotQueue struct {
	lots []Lot
	head int
}

func (q *lotQueue) pushBack(l Lot) { q.lots = append(q.lots, l) }

func (q *lotQueue) empty() bool { return q.head >= len(q.lots) }

func (q *lotQueue) front() *Lot { return &q.lots[q.head] }

func (q *lotQueue) popFront() {
	q.lots[q.head] = Lot{}
	q.head++
	if q.head > 32 && q.head*2 >= len(q.lots) {
		q.lots = append(q.lots[:0], q.lots[q.head:]...)
		q.head = 0
	}
}

func (q *lotQueue) open() []Lot { return q.lots[q.head:] }

// lotBook es el mapa asset → cola FIFO. Solo MatchLots lo crea y lo muta.
type lotBook struct {
	queues map[string]*lotQueue
	order  []string // assets en orden de primera aparición, para OpenLots determinista
}

func newLotBook() *lotBook {
	return &lotBook{queues: make(map[string]*lotQueue)}
}

func (b *lotBook) queue(asset string) *lotQueue {
	q, ok := b.queues[asset]
	if !ok {
		q = &lotQueue{}
		b.queues[asset] = q
		b.order = append(b.order, asset)
	}
	return q
}

// buy abre un lote nuevo al final de la cola del asset.
func (b *lotBook) buy(t Trade) {
	b.queue(t.Asset).pushBack(Lot{Asset: t.Asset, OpenedAt: t.Timestamp, Remaining: t.Quantity})
}

// sell consume lotes FIFO y devuelve las muestras más la cantidad que quedó sin matchear.
func (b *lotBook) sell(t Trade, samples []HoldingSample) ([]HoldingSample, float64) {
	q, ok := b.queues[t.Asset]
	remaining := t.Quantity
	if !ok {
		return samples, remaining
	}

	for remaining > 0 && !q.empty() {
		lot := q.front()
		used := min(remaining, lot.Remaining)
		samples = append(samples, HoldingSample{
			Asset:    t.Asset,
			Days:     DaysBetween(lot.OpenedAt, t.Timestamp),
			Quantity: used,
		})
		lot.Remaining -= used
		remaining -= used

		if lot.Remaining <= lotEpsilon {
			q.popFront()
		}
	}
	if remaining <= lotEpsilon {
		remaining = 0
	}
	return samples, remaining
}

// MatchLots recorre los trades en orden y matchea SELLs contra BUYs previos del mismo asset.
// Trades sin asset, con quantity <= 0 o con side distinto de BUY/SELL se ignoran.
// O(n) amortizado: cada lote sale de su cola como mucho una vez.
func MatchLots(trades []Trade) LotMatch {
	book := newLotBook()
	var res LotMatch

	for _, t := range trades {
		if t.Asset == "" || !(t.Quantity > 0) {
			continue
		}
		switch t.Side {
		case SideBuy:
			book.buy(t)
		case SideSell:
			var unmatched float64
			res.Samples, unmatched = book.sell(t, res.Samples)
			res.UnmatchedSellQty += unmatched
		}
	}

	for _, asset := range book.order {
		res.OpenLots = append(res.OpenLots, book.queues[asset].open()...)
	}
	return res
}

// AvgHoldingDays devuelve la media (no ponderada) de los holding periods en días.
// ok=false si no hubo ningún match.
func (m LotMatch) AvgHoldingDays() (float64, bool) {
	days := make([]float64, len(m.Samples))
	for i, s := range m.Samples {
		days[i] = s.Days
	}
	return MeanOf(days)
}

// AvgHoldingPeriodDays es el atajo MatchLots(trades).AvgHoldingDays().
func AvgHoldingPeriodDays(trades []Trade) (float64, bool) {
	return MatchLots(trades).AvgHoldingDays()
}
