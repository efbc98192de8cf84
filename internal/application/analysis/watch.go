package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/tradebias/internal/ports"
)

// Watch re-analiza la fuente cada interval hasta que el contexto se cancele.
// Un ciclo fallido se registra y el loop continúa.
func (s *Service) Watch(ctx context.Context, source ports.TradeSource, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("analysis.Watch: interval must be positive")
	}

	slog.Info("watch starting", "source", source.Name(), "interval", interval)

	if err := s.watchCycle(ctx, source); err != nil {
		slog.Error("watch cycle failed", "err", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped", "source", source.Name())
			return nil
		case <-ticker.C:
			if err := s.watchCycle(ctx, source); err != nil {
				slog.Error("watch cycle failed", "err", err)
			}
		}
	}
}

func (s *Service) watchCycle(ctx context.Context, source ports.TradeSource) error {
	if _, err := s.Analyze(ctx, source); err != nil {
		return fmt.Errorf("analysis.watchCycle: %w", err)
	}
	return nil
}
