package domain

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Motivos de descarte de filas durante la normalización.
const (
	DropTimestamp   = "timestamp"
	DropQuantity    = "quantity"
	DropEntryPrice  = "entry_price"
	DropProfitLoss  = "profit_loss"
	DropNonPositive = "non_positive_quantity"
)

// NormalizeResult es la secuencia ordenada de trades más la contabilidad de filas descartadas.
type NormalizeResult struct {
	Trades      []Trade
	Dropped     int
	DropReasons map[string]int // motivo → filas
}

// Normalize convierte filas crudas en trades ordenados por timestamp (sort estable:
// los empates conservan el orden de entrada). Nunca falla: una fila con timestamp
// o número inválido, o con quantity <= 0, se descarta y se cuenta en DropReasons.
func Normalize(rows []RawRow) NormalizeResult {
	res := NormalizeResult{
		Trades:      make([]Trade, 0, len(rows)),
		DropReasons: make(map[string]int),
	}

	for _, row := range rows {
		t, reason, ok := normalizeRow(row)
		if !ok {
			res.Dropped++
			res.DropReasons[reason]++
			continue
		}
		res.Trades = append(res.Trades, t)
	}

	sort.SliceStable(res.Trades, func(i, j int) bool {
		return res.Trades[i].Timestamp.Before(res.Trades[j].Timestamp)
	})
	return res
}

func normalizeRow(row RawRow) (Trade, string, bool) {
	ts, ok := ParseTimestamp(row.Timestamp)
	if !ok {
		return Trade{}, DropTimestamp, false
	}
	qty, ok := parseNumber(row.Quantity)
	if !ok {
		return Trade{}, DropQuantity, false
	}
	price, ok := parseNumber(row.EntryPrice)
	if !ok {
		return Trade{}, DropEntryPrice, false
	}
	pl, ok := parseNumber(row.ProfitLoss)
	if !ok {
		return Trade{}, DropProfitLoss, false
	}
	if qty <= 0 {
		return Trade{}, DropNonPositive, false
	}

	return Trade{
		Timestamp:  ts,
		Asset:      strings.TrimSpace(row.Asset),
		Side:       Side(strings.ToUpper(strings.TrimSpace(row.Side))),
		Quantity:   qty,
		EntryPrice: price,
		ProfitLoss: pl,
	}, "", true
}

// parseNumber acepta cualquier float finito; "", "nan" o "inf" no son válidos.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006-01",
	"2006",
}

// ParseTimestamp interpreta un timestamp ISO o unix (segundos o milisegundos).
// El resultado siempre está en UTC; los strings sin zona se leen como UTC.
// Un número solo se toma como unix con al menos minUnixDigits dígitos enteros
// ("2024" es un año). Fuera de [MinTimestamp, MaxTimestamp] no es válido.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, ok, isUnix := parseUnix(s); isUnix {
		return t, ok
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return t, InTimestampRange(t)
		}
	}
	return time.Time{}, false
}

const minUnixDigits = 9

// parseUnix reconoce "[-]ddddddddd[.fff]". isUnix=false si s no tiene esa forma.
func parseUnix(s string) (t time.Time, ok, isUnix bool) {
	digits := strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(digits, ".")
	if len(intPart) < minUnixDigits || !allDigits(intPart) || (hasFrac && !allDigits(frac)) {
		return time.Time{}, false, false
	}

	if !hasFrac {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false, true
		}
		if n > 1e12 || n < -1e12 {
			t = time.UnixMilli(n).UTC()
		} else {
			t = time.Unix(n, 0).UTC()
		}
		return t, InTimestampRange(t), true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < float64(MinTimestamp.Unix()) || f > float64(MaxTimestamp.Unix()) {
		return time.Time{}, false, true
	}
	sec := math.Floor(f)
	return time.Unix(int64(sec), int64((f-sec)*1e9)).UTC(), true, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
