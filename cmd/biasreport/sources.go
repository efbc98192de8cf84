package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/alejandrodnm/tradebias/config"
	"github.com/alejandrodnm/tradebias/internal/adapters/csvsource"
	"github.com/alejandrodnm/tradebias/internal/adapters/httpsource"
	"github.com/alejandrodnm/tradebias/internal/adapters/xlsxsource"
	"github.com/alejandrodnm/tradebias/internal/ports"
)

// openSources elige el adapter por argumento: "-" es stdin, .xlsx/.xlsm es Excel,
// http(s):// es la API de ledgers y el resto se lee como CSV.
// Con -account y sin argumentos se usa la URL de la config.
func openSources(cfg *config.Config, opts options, args []string) ([]ports.TradeSource, error) {
	if len(args) == 0 {
		if opts.account == "" || cfg.Ledger.BaseURL == "" {
			return nil, errors.New("no ledger given (pass a file, '-' for stdin, or -account with a ledger URL)")
		}
		return []ports.TradeSource{newHTTPSource(cfg, cfg.Ledger.BaseURL, opts.account)}, nil
	}

	sources := make([]ports.TradeSource, 0, len(args))
	stdin := false
	for _, arg := range args {
		switch {
		case arg == "-":
			if stdin {
				return nil, errors.New("stdin can only be read once")
			}
			stdin = true
			sources = append(sources, csvsource.NewReader("stdin", os.Stdin))
		case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
			sources = append(sources, newHTTPSource(cfg, arg, opts.account))
		case isExcel(arg):
			sources = append(sources, xlsxsource.New(arg, opts.sheet))
		default:
			sources = append(sources, csvsource.New(arg))
		}
	}
	return sources, nil
}

func newHTTPSource(cfg *config.Config, baseURL, account string) *httpsource.Source {
	return httpsource.New(baseURL, account,
		httpsource.WithPageSize(cfg.Ledger.PageSize),
		httpsource.WithMaxPages(cfg.Ledger.MaxPages),
		httpsource.WithRateLimit(cfg.Ledger.RateLimit, 2),
		httpsource.WithTimeout(cfg.LedgerTimeout()),
		httpsource.WithToken(cfg.Ledger.Token),
	)
}

func isExcel(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}
