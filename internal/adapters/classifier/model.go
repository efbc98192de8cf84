package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

// Sample es un ledger de entrenamiento con su etiqueta.
type Sample struct {
	Label  string
	Trades []domain.Trade
}

// Model es un clasificador por centroide más cercano sobre features estandarizadas.
// Es inmutable tras Fit y seguro para uso concurrente.
type Model struct {
	mean      [numFeatures]float64
	scale     [numFeatures]float64
	labels    []string
	centroids [][]float64
	rows      int
}

// Fit entrena el modelo. Las etiquetas fuera de domain.BiasLabels se rechazan.
// Sin filas de entrenamiento devuelve domain.ErrClassifierUnavailable.
func Fit(samples []Sample) (*Model, error) {
	known := make(map[string]bool, len(domain.BiasLabels))
	for _, l := range domain.BiasLabels {
		known[l] = true
	}

	var (
		data   []float64
		labels []string
	)
	for _, s := range samples {
		if !known[s.Label] {
			return nil, fmt.Errorf("classifier.Fit: unknown label %q", s.Label)
		}
		x := BuildFeatures(s.Trades)
		if x == nil {
			continue
		}
		r, _ := x.Dims()
		for i := 0; i < r; i++ {
			data = append(data, x.RawRowView(i)...)
			labels = append(labels, s.Label)
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("classifier.Fit: no training rows: %w", domain.ErrClassifierUnavailable)
	}

	x := mat.NewDense(len(labels), numFeatures, data)
	m := &Model{rows: len(labels)}

	// StandardScaler: media y desviación poblacional por columna; desviación 0 → escala 1
	col := make([]float64, len(labels))
	for j := 0; j < numFeatures; j++ {
		mat.Col(col, j, x)
		mean, std := stat.PopMeanStdDev(col, nil)
		m.mean[j] = mean
		m.scale[j] = 1
		if std > 0 && domain.IsFinite(std) {
			m.scale[j] = std
		}
	}

	sums := make(map[string][]float64)
	counts := make(map[string]int)
	for i, label := range labels {
		z := m.standardize(x.RawRowView(i))
		if sums[label] == nil {
			sums[label] = make([]float64, numFeatures)
		}
		floats.Add(sums[label], z)
		counts[label]++
	}

	for _, label := range domain.BiasLabels {
		n, ok := counts[label]
		if !ok {
			continue
		}
		c := sums[label]
		floats.Scale(1/float64(n), c)
		m.labels = append(m.labels, label)
		m.centroids = append(m.centroids, c)
	}
	return m, nil
}

// Labels devuelve las etiquetas con al menos una fila de entrenamiento.
func (m *Model) Labels() []string { return append([]string(nil), m.labels...) }

// TrainingRows es el número de filas usadas en Fit.
func (m *Model) TrainingRows() int { return m.rows }

// Centroids devuelve el centroide de cada etiqueta en unidades originales,
// indexado por FeatureNames.
func (m *Model) Centroids() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(m.labels))
	for i, label := range m.labels {
		c := make(map[string]float64, numFeatures)
		for j, name := range FeatureNames {
			c[name] = m.centroids[i][j]*m.scale[j] + m.mean[j]
		}
		out[label] = c
	}
	return out
}

// Predict devuelve la etiqueta del centroide más cercano (distancia euclídea).
// Los empates se resuelven por el orden de domain.BiasLabels.
func (m *Model) Predict(features []float64) string {
	z := m.standardize(features)
	best, bestDist := 0, math.Inf(1)
	for i, c := range m.centroids {
		if d := floats.Distance(z, c, 2); d < bestDist {
			best, bestDist = i, d
		}
	}
	return m.labels[best]
}

// Ratios clasifica cada trade y devuelve el porcentaje por etiqueta, redondeado a 2 decimales.
func (m *Model) Ratios(trades []domain.Trade) (*domain.BiasRatios, error) {
	x := BuildFeatures(trades)
	if x == nil {
		return nil, errors.Join(domain.ErrClassifierUnavailable, errors.New("no trades to classify"))
	}

	r, _ := x.Dims()
	counts := make(map[string]float64, len(m.labels))
	for i := 0; i < r; i++ {
		counts[m.Predict(x.RawRowView(i))]++
	}

	pct := make(map[string]float64, len(counts))
	for label, n := range counts {
		pct[label] = domain.Round2(100 * n / float64(r))
	}
	ratios := domain.BiasRatiosFromMap(pct)
	return &ratios, nil
}

func (m *Model) standardize(x []float64) []float64 {
	z := make([]float64, numFeatures)
	for j := range z {
		z[j] = (x[j] - m.mean[j]) / m.scale[j]
	}
	return z
}
