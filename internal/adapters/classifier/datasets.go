package classifier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alejandrodnm/tradebias/internal/adapters/csvsource"
	"github.com/alejandrodnm/tradebias/internal/domain"
)

// DatasetFiles asocia cada etiqueta con su CSV de entrenamiento dentro del directorio de datasets.
var DatasetFiles = map[string]string{
	domain.LabelOvertrader:    "overtrader.csv",
	domain.LabelLossAversion:  "loss_averse_trader.csv",
	domain.LabelRevengeTrader: "revenge_trader.csv",
	domain.LabelCalmTrader:    "calm_trader.csv",
}

// LoadDatasets lee los CSV etiquetados de dir. Los ficheros ausentes se saltan;
// uno ilegible o sin las columnas obligatorias es un error.
func LoadDatasets(ctx context.Context, dir string) ([]Sample, error) {
	var samples []Sample
	for _, label := range domain.BiasLabels {
		path := filepath.Join(dir, DatasetFiles[label])
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			slog.Debug("training dataset missing", "label", label, "path", path)
			continue
		}

		ledger, err := csvsource.New(path).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("classifier.LoadDatasets: %w", err)
		}
		if missing := ledger.MissingColumns(); len(missing) > 0 {
			return nil, fmt.Errorf("classifier.LoadDatasets: %s: %w", path, &domain.MissingColumnsError{Columns: missing})
		}

		norm := domain.Normalize(ledger.Rows)
		samples = append(samples, Sample{Label: label, Trades: norm.Trades})
	}
	return samples, nil
}

// DirTrainer entrena desde los CSV de dir.
func DirTrainer(dir string) Trainer {
	return func(ctx context.Context) (*Model, error) {
		samples, err := LoadDatasets(ctx, dir)
		if err != nil {
			return nil, err
		}
		return Fit(samples)
	}
}
