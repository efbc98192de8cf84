package domain

// numeric.go: aritmética guardada.
//
// Toda división del pipeline pasa por aquí: una división por cero, un grupo vacío
// o un NaN nunca llegan al documento de salida. Cada helper devuelve (valor, ok)
// y el llamador elige el fallback que corresponde a su métrica.

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// IsFinite devuelve true si v no es NaN ni ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SafeDiv divide num/den. ok=false si den es cero o el resultado no es finito.
func SafeDiv(num, den float64) (float64, bool) {
	if den == 0 || !IsFinite(num) || !IsFinite(den) {
		return 0, false
	}
	q := num / den
	if !IsFinite(q) {
		return 0, false
	}
	return q, true
}

// DivOr divide num/den o devuelve fallback si la división no está definida.
func DivOr(num, den, fallback float64) float64 {
	if q, ok := SafeDiv(num, den); ok {
		return q
	}
	return fallback
}

// MeanOf devuelve la media de xs. ok=false si xs está vacío o la media no es finita.
func MeanOf(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	m := stat.Mean(xs, nil)
	if !IsFinite(m) {
		return 0, false
	}
	return m, true
}

// PopStdDev devuelve la desviación estándar poblacional (ddof=0) de xs.
func PopStdDev(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	_, std := stat.PopMeanStdDev(xs, nil)
	if !IsFinite(std) {
		return 0, false
	}
	return std, true
}

// Clamp01 recorta v a [0, 1]. NaN se trata como 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Round2 redondea a 2 decimales en base 10 (sin artefactos de binario como 1.005 → 1.00).
func Round2(v float64) float64 {
	if !IsFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Score convierte un valor en [0,1] a un score 0–100 con 2 decimales.
func Score(v float64) float64 {
	return Round2(Clamp01(v) * 100)
}

// Logistic mapea x > 0 a (0, 1) centrado en midpoint:
//
//	f(x) = 1 / (1 + exp(-sensitivity × ln(x / midpoint)))
//
// Devuelve 0.5 (neutral) si x no es finito, x <= 0 o midpoint <= 0.
func Logistic(x, midpoint, sensitivity float64) float64 {
	if !IsFinite(x) || x <= 0 || !IsFinite(midpoint) || midpoint <= 0 {
		return 0.5
	}
	v := 1 / (1 + math.Exp(-sensitivity*math.Log(x/midpoint)))
	if !IsFinite(v) {
		return 0.5
	}
	return v
}

// Ptr devuelve un puntero a v, o nil si ok es false o v no es finito.
// Es la forma de los campos "f|null" del documento.
func Ptr(v float64, ok bool) *float64 {
	if !ok || !IsFinite(v) {
		return nil
	}
	return &v
}

// finiteOr devuelve v si es finito, si no fallback.
func finiteOr(v, fallback float64) float64 {
	if IsFinite(v) {
		return v
	}
	return fallback
}

// finitePtr anula un puntero cuyo valor no es finito.
func finitePtr(p *float64) *float64 {
	if p == nil || !IsFinite(*p) {
		return nil
	}
	return p
}
