package domain

import (
	"strings"
	"time"
)

// Side es la dirección de un trade ejecutado.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade representa un trade ejecutado del ledger, ya normalizado.
// Es inmutable: los cálculos nunca modifican un Trade.
type Trade struct {
	Timestamp  time.Time // sin zona horaria tras normalizar (wall clock en UTC)
	Asset      string    // puede estar vacío en ledgers sin columna asset
	Side       Side      // "BUY" o "SELL" (otros valores se conservan tal cual)
	Quantity   float64   // siempre > 0
	EntryPrice float64
	ProfitLoss float64 // P&L realizado, con signo
}

// Value devuelve el tamaño nocional del trade: quantity × entry_price.
func (t Trade) Value() float64 {
	return t.Quantity * t.EntryPrice
}

// IsLoss devuelve true si el trade cerró con pérdida estricta.
func (t Trade) IsLoss() bool {
	return t.ProfitLoss < 0
}

// IsWin devuelve true si el trade cerró con ganancia estricta.
func (t Trade) IsWin() bool {
	return t.ProfitLoss > 0
}

// RawRow es una fila del ledger tal como llega de la fuente, sin parsear.
// Todas las celdas son texto; el normalizador decide qué filas sobreviven.
type RawRow struct {
	Timestamp  string `csv:"timestamp" json:"timestamp"`
	Asset      string `csv:"asset" json:"asset"`
	Side       string `csv:"side" json:"side"`
	Quantity   string `csv:"quantity" json:"quantity"`
	EntryPrice string `csv:"entry_price" json:"entry_price"`
	ProfitLoss string `csv:"profit_loss" json:"profit_loss"`
}

// Ledger es el resultado de leer una fuente tabular: las columnas presentes y las filas.
type Ledger struct {
	Name    string   // nombre legible de la fuente (ruta, URL)
	Columns []string // cabecera tal como venía, en minúsculas
	Rows    []RawRow
}

// Columnas obligatorias del ledger. asset es opcional: sin ella solo se pierde el holding period.
var RequiredColumns = []string{"timestamp", "side", "quantity", "entry_price", "profit_loss"}

// MissingColumns devuelve las columnas obligatorias ausentes en la cabecera.
func (l Ledger) MissingColumns() []string {
	present := make(map[string]bool, len(l.Columns))
	for _, c := range l.Columns {
		present[c] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// NormalizeColumn lleva un nombre de columna a su forma canónica: minúsculas, sin BOM ni
// espacios alrededor, y con espacios o guiones internos como "_" ("Entry Price" → "entry_price").
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

// Set asigna value a la celda de la columna dada (ya normalizada). Columnas desconocidas se ignoran.
func (r *RawRow) Set(column, value string) {
	switch column {
	case "timestamp":
		r.Timestamp = value
	case "asset":
		r.Asset = value
	case "side":
		r.Side = value
	case "quantity":
		r.Quantity = value
	case "entry_price":
		r.EntryPrice = value
	case "profit_loss":
		r.ProfitLoss = value
	}
}
