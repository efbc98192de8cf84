package domain

// DefaultClassifierMaxRows es el tamaño por encima del cual los trades se submuestrean
// antes de pasarlos al clasificador. Las métricas deterministas nunca se submuestrean.
const DefaultClassifierMaxRows = 120_000

// Downsample selecciona filas a paso fijo (0, k, 2k, …) con k = ceil(len/maxRows),
// conservando el orden temporal. El resultado tiene como mucho maxRows trades.
// Con maxRows <= 0 o len <= maxRows devuelve la entrada sin copiar.
func Downsample(trades []Trade, maxRows int) []Trade {
	if maxRows <= 0 || len(trades) <= maxRows {
		return trades
	}
	stride := (len(trades) + maxRows - 1) / maxRows
	out := make([]Trade, 0, maxRows)
	for i := 0; i < len(trades); i += stride {
		out = append(out, trades[i])
	}
	return out
}
