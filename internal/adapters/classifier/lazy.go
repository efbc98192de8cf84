package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

// Trainer construye un modelo. Se invoca como mucho una vez con éxito por Lazy.
type Trainer func(ctx context.Context) (*Model, error)

// Lazy entrena el modelo en el primer Classify y lo reutiliza durante la vida del proceso.
// Un entrenamiento fallido no se cachea: la siguiente llamada lo reintenta.
type Lazy struct {
	mu    sync.Mutex
	train Trainer
	model *Model
}

// NewLazy crea un clasificador perezoso sobre train.
func NewLazy(train Trainer) *Lazy {
	return &Lazy{train: train}
}

// Classify implementa ports.Classifier.
func (l *Lazy) Classify(ctx context.Context, trades []domain.Trade) (*domain.BiasRatios, error) {
	m, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	ratios, err := m.Ratios(trades)
	if err != nil {
		return nil, fmt.Errorf("classifier.Classify: %w", err)
	}
	return ratios, nil
}

// Ready indica si ya hay un modelo entrenado.
func (l *Lazy) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.model != nil
}

func (l *Lazy) get(ctx context.Context) (*Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.model != nil {
		return l.model, nil
	}
	if l.train == nil {
		return nil, fmt.Errorf("classifier: no trainer: %w", domain.ErrClassifierUnavailable)
	}

	m, err := l.train(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrClassifierUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("classifier: train: %w", errors.Join(domain.ErrClassifierUnavailable, err))
	}
	if m == nil {
		return nil, fmt.Errorf("classifier: trainer returned no model: %w", domain.ErrClassifierUnavailable)
	}

	slog.Info("bias classifier trained", "rows", m.TrainingRows(), "labels", m.Labels())
	slog.Debug("bias classifier centroids", "features", FeatureNames[:], "centroids", m.Centroids())
	l.model = m
	return m, nil
}
