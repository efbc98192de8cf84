package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

// ReportStorage persiste los reportes generados para consultar su evolución.
type ReportStorage interface {
	// SaveReport persiste un reporte completo.
	SaveReport(ctx context.Context, r domain.Report) error

	// GetReport devuelve un reporte por ID.
	GetReport(ctx context.Context, id string) (domain.Report, error)

	// GetHistory devuelve los reportes de una fuente generados en el rango dado, del más reciente al más antiguo.
	// source vacío devuelve todas las fuentes.
	GetHistory(ctx context.Context, source string, from, to time.Time) ([]domain.Report, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
