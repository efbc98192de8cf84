package ports

import (
	"context"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

// Classifier etiqueta cada trade con un perfil de sesgo y devuelve el porcentaje por etiqueta.
type Classifier interface {
	// Classify devuelve domain.ErrClassifierUnavailable si no hay modelo entrenado.
	Classify(ctx context.Context, trades []domain.Trade) (*domain.BiasRatios, error)
}
