package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alejandrodnm/tradebias/internal/adapters/notify"
	"github.com/alejandrodnm/tradebias/internal/application/analysis"
)

// runHistory imprime los reportes guardados de los últimos days días.
// Sin argumentos lista todas las fuentes.
func runHistory(ctx context.Context, svc *analysis.Service, console *notify.Console, output string, args []string, days int) error {
	if len(args) > 1 {
		return fmt.Errorf("-history takes at most one source, got %d", len(args))
	}
	source := ""
	if len(args) == 1 {
		source = args[0]
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	reports, err := svc.History(ctx, source, from, to)
	if err != nil {
		return err
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	console.PrintHistory(reports)
	return nil
}
