package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tradebias/internal/domain"
	"github.com/alejandrodnm/tradebias/internal/ports"
)

// Config contiene la configuración del pipeline de análisis.
type Config struct {
	ClassifierMaxRows int // 0 = domain.DefaultClassifierMaxRows
	Workers           int // goroutines para modo batch (0 = NumCPU*2)
}

// Service es el orquestador: fuente → normalización → métricas → clasificador → reporte.
type Service struct {
	cfg        Config
	classifier ports.Classifier
	storage    ports.ReportStorage
	notifier   ports.Notifier

	now   func() time.Time
	newID func() string
}

// New crea un Service con todas las dependencias inyectadas.
// classifier, storage y notifier son opcionales (nil los desactiva).
func New(cfg Config, classifier ports.Classifier, storage ports.ReportStorage, notifier ports.Notifier) *Service {
	if cfg.ClassifierMaxRows == 0 {
		cfg.ClassifierMaxRows = domain.DefaultClassifierMaxRows
	}
	return &Service{
		cfg:        cfg,
		classifier: classifier,
		storage:    storage,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// Analyze carga el ledger de la fuente y produce el reporte completo.
// Solo fallan la carga, un dataset vacío o la falta de columnas obligatorias;
// el clasificador, el notifier y el storage degradan con un log.
func (s *Service) Analyze(ctx context.Context, source ports.TradeSource) (domain.Report, error) {
	start := time.Now()

	ledger, err := source.Load(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("analysis.Analyze: load %s: %w", source.Name(), err)
	}

	report, err := s.Build(ctx, source.Name(), ledger)
	if err != nil {
		return domain.Report{}, err
	}

	s.publish(ctx, report)

	slog.Info("analysis complete",
		"source", report.Source,
		"trades", report.Summary.Trades,
		"dropped", report.Summary.RowsDropped,
		"classified", report.BiasTypeRatios != nil,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

// Build calcula el reporte de un ledger ya cargado, sin notificar ni persistir.
func (s *Service) Build(ctx context.Context, name string, ledger domain.Ledger) (domain.Report, error) {
	if len(ledger.Rows) == 0 {
		return domain.Report{}, fmt.Errorf("analysis.Build: %s: %w", name, domain.ErrEmptyDataset)
	}
	if missing := ledger.MissingColumns(); len(missing) > 0 {
		return domain.Report{}, fmt.Errorf("analysis.Build: %s: %w", name, &domain.MissingColumnsError{Columns: missing})
	}

	norm := domain.Normalize(ledger.Rows)
	if norm.Dropped > 0 {
		attrs := []any{"source", name, "dropped", norm.Dropped}
		for reason, n := range norm.DropReasons {
			attrs = append(attrs, reason, n)
		}
		slog.Warn("rows dropped during normalization", attrs...)
	}

	metrics := domain.ComputeMetrics(norm.Trades)
	sample := domain.Downsample(norm.Trades, s.cfg.ClassifierMaxRows)
	if len(sample) < len(norm.Trades) {
		slog.Debug("downsampled for classifier", "source", name, "from", len(norm.Trades), "to", len(sample))
	}

	report := domain.Report{
		ID:                   s.newID(),
		GeneratedAt:          s.now(),
		Source:               name,
		Summary:              domain.NewSummary(len(ledger.Rows), norm, metrics.Lots, len(sample)),
		BiasTypeRatios:       s.classify(ctx, name, sample),
		Behavioral:           metrics.Behavioral,
		PortfolioMetrics:     metrics.PortfolioMetrics,
		UserPortfolioMetrics: metrics.UserPortfolioMetrics,
	}

	report.Sanitize()
	if err := report.Validate(); err != nil {
		return domain.Report{}, fmt.Errorf("analysis.Build: %s: %w", name, err)
	}
	return report, nil
}

// classify devuelve nil cuando no hay clasificador, trades o modelo.
func (s *Service) classify(ctx context.Context, name string, trades []domain.Trade) *domain.BiasRatios {
	if s.classifier == nil || len(trades) == 0 {
		return nil
	}

	ratios, err := s.classifier.Classify(ctx, trades)
	if err != nil {
		if errors.Is(err, domain.ErrClassifierUnavailable) {
			slog.Warn("classifier unavailable, bias ratios omitted", "source", name, "err", err)
		} else {
			slog.Warn("classifier error", "source", name, "err", err)
		}
		return nil
	}
	return ratios
}

func (s *Service) publish(ctx context.Context, report domain.Report) {
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, report); err != nil {
			slog.Warn("notifier error", "source", report.Source, "err", err)
		}
	}

	if s.storage != nil {
		if err := s.storage.SaveReport(ctx, report); err != nil {
			slog.Warn("storage error", "source", report.Source, "err", err)
		}
	}
}

// History devuelve los reportes persistidos de una fuente, del más reciente al más antiguo.
func (s *Service) History(ctx context.Context, source string, from, to time.Time) ([]domain.Report, error) {
	if s.storage == nil {
		return nil, errors.New("analysis.History: storage disabled")
	}
	reports, err := s.storage.GetHistory(ctx, source, from, to)
	if err != nil {
		return nil, fmt.Errorf("analysis.History: %w", err)
	}
	return reports, nil
}

// Report devuelve un reporte persistido por su ID y lo pasa al notifier.
func (s *Service) Report(ctx context.Context, id string) (domain.Report, error) {
	if s.storage == nil {
		return domain.Report{}, errors.New("analysis.Report: storage disabled")
	}
	r, err := s.storage.GetReport(ctx, id)
	if err != nil {
		return domain.Report{}, fmt.Errorf("analysis.Report: %w", err)
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, r); err != nil {
			return domain.Report{}, fmt.Errorf("analysis.Report: notify: %w", err)
		}
	}
	return r, nil
}
