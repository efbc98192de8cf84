package analysis

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/tradebias/internal/domain"
	"github.com/alejandrodnm/tradebias/internal/ports"
)

// Result es el resultado de analizar una fuente dentro de un lote.
type Result struct {
	Source string
	Report *domain.Report
	Err    error
}

// AnalyzeBatch analiza ledgers independientes en paralelo con un worker pool.
// El resultado conserva el orden de sources. Si workers <= 0 usa cfg.Workers,
// y si también es 0, runtime.NumCPU() × 2.
func (s *Service) AnalyzeBatch(ctx context.Context, sources []ports.TradeSource, workers int) []Result {
	if workers <= 0 {
		workers = s.cfg.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if workers > len(sources) {
		workers = len(sources)
	}

	results := make([]Result, len(sources))
	workCh := make(chan int, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				src := sources[idx]
				res := Result{Source: src.Name()}
				if err := ctx.Err(); err != nil {
					res.Err = err
					results[idx] = res
					continue
				}

				report, err := s.Analyze(ctx, src)
				if err != nil {
					slog.Warn("batch analysis failed", "source", src.Name(), "err", err)
					res.Err = err
				} else {
					res.Report = &report
				}
				results[idx] = res
			}
		}()
	}

	for i := range sources {
		workCh <- i
	}
	close(workCh)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	slog.Info("batch analysis complete",
		"sources", len(sources),
		"failed", failed,
		"workers", workers,
	)
	return results
}
