package ports

import (
	"context"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

// TradeSource carga un ledger tabular de trades (CSV, XLSX, HTTP).
type TradeSource interface {
	// Load devuelve la cabecera y las filas sin parsear.
	// Una fuente sin filas devuelve un Ledger vacío, no un error.
	Load(ctx context.Context) (domain.Ledger, error)

	// Name identifica la fuente en logs y en el reporte.
	Name() string
}
