package ports

import (
	"context"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

// Notifier presenta el reporte al usuario.
type Notifier interface {
	// Notify escribe el reporte. En la implementación JSON es el documento completo;
	// en la de consola, tablas formateadas.
	Notify(ctx context.Context, r domain.Report) error
}
