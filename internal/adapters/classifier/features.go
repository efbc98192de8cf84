// Package classifier etiqueta trades con un perfil de sesgo.
//
// Cada trade se describe con cuatro features de comportamiento, se estandariza con la
// media y desviación del set de entrenamiento y se asigna al centroide más cercano.
package classifier

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

const (
	numFeatures = 4

	// firstGapSeconds es el Δt asignado al primer trade, que no tiene anterior.
	firstGapSeconds = 60.0
)

// FeatureNames en el orden de las columnas de BuildFeatures.
var FeatureNames = [numFeatures]string{"velocity", "revenge_signal", "size_aggression", "loss_magnitude"}

// BuildFeatures devuelve una matriz n×4 con una fila por trade (trades ya ordenados):
//
//	velocity        = log1p(1/Δt)
//	revenge_signal  = [pl previo < 0] × 1/Δt
//	size_aggression = valor / valor previo (1 si no es finito o es el primero)
//	loss_magnitude  = |min(pl, 0)|
//
// Δt en segundos. Cualquier feature no finita (Δt = 0) vale 0. Devuelve nil sin trades.
func BuildFeatures(trades []domain.Trade) *mat.Dense {
	if len(trades) == 0 {
		return nil
	}

	data := make([]float64, 0, len(trades)*numFeatures)
	for i, t := range trades {
		gap := firstGapSeconds
		prevLoss := false
		size := 1.0
		if i > 0 {
			prev := trades[i-1]
			gap = domain.SecondsBetween(prev.Timestamp, t.Timestamp)
			prevLoss = prev.IsLoss()
			if r := t.Value() / prev.Value(); domain.IsFinite(r) {
				size = r
			}
		}

		inv := 1 / gap
		revenge := 0.0
		if prevLoss {
			revenge = inv
		}

		data = append(data,
			finiteOrZero(math.Log1p(inv)),
			finiteOrZero(revenge),
			finiteOrZero(size),
			finiteOrZero(math.Abs(math.Min(t.ProfitLoss, 0))),
		)
	}
	return mat.NewDense(len(trades), numFeatures, data)
}

func finiteOrZero(v float64) float64 {
	if domain.IsFinite(v) {
		return v
	}
	return 0
}
