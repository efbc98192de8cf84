package main

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/tradebias/internal/adapters/notify"
	"github.com/alejandrodnm/tradebias/internal/application/analysis"
	"github.com/alejandrodnm/tradebias/internal/ports"
)

// runBatch analiza todas las fuentes en paralelo. Devuelve error si falló alguna.
func runBatch(ctx context.Context, svc *analysis.Service, console *notify.Console, sources []ports.TradeSource, output string) error {
	results := svc.AnalyzeBatch(ctx, sources, 0)

	failed := 0
	rows := make([]notify.BatchResult, len(results))
	for i, r := range results {
		rows[i] = notify.BatchResult{Source: r.Source, Report: r.Report, Err: r.Err}
		if r.Err != nil {
			failed++
		}
	}

	if output != "json" {
		console.PrintBatch(rows)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d ledgers failed", failed, len(results))
	}
	return nil
}
