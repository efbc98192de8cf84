package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de biasreport.
type Config struct {
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// AnalysisConfig controla el pipeline.
type AnalysisConfig struct {
	ClassifierMaxRows    int `yaml:"classifier_max_rows" validate:"gte=0"`
	Workers              int `yaml:"workers" validate:"gte=0"`                 // 0 = NumCPU*2
	WatchIntervalSeconds int `yaml:"watch_interval_seconds" validate:"gte=1"` // modo -watch
}

// ClassifierConfig indica dónde están los CSV de entrenamiento.
type ClassifierConfig struct {
	DatasetsDir string `yaml:"datasets_dir"` // vacío = clasificador desactivado
}

// LedgerConfig configura la fuente HTTP de ledgers.
type LedgerConfig struct {
	BaseURL        string  `yaml:"base_url" validate:"omitempty,url"`
	Token          string  `yaml:"-"` // solo desde TRADEBIAS_LEDGER_TOKEN
	PageSize       int     `yaml:"page_size" validate:"gte=1,lte=10000"`
	MaxPages       int     `yaml:"max_pages" validate:"gte=1"`
	RateLimit      float64 `yaml:"rate_limit" validate:"gt=0"` // requests/segundo
	TimeoutSeconds int     `yaml:"timeout_seconds" validate:"gte=1"`
}

// StorageConfig controla dónde se persiste el historial de reportes.
type StorageConfig struct {
	DSN           string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	RetentionDays int    `yaml:"retention_days" validate:"gte=0"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Si el YAML no existe se usan los defaults. Las variables de entorno tienen prioridad.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate comprueba rangos y enums con las tags `validate`.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// WatchInterval devuelve el intervalo del modo watch como time.Duration.
func (c *Config) WatchInterval() time.Duration {
	return time.Duration(c.Analysis.WatchIntervalSeconds) * time.Second
}

// Retention devuelve la retención del historial de reportes.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Storage.RetentionDays) * 24 * time.Hour
}

// LedgerTimeout devuelve el timeout HTTP de la fuente de ledgers.
func (c *Config) LedgerTimeout() time.Duration {
	return time.Duration(c.Ledger.TimeoutSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("TRADEBIAS_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("TRADEBIAS_DATASETS"); v != "" {
		cfg.Classifier.DatasetsDir = v
	}
	if v := os.Getenv("TRADEBIAS_LEDGER_URL"); v != "" {
		cfg.Ledger.BaseURL = v
	}
	if v := os.Getenv("TRADEBIAS_LEDGER_TOKEN"); v != "" {
		cfg.Ledger.Token = v
	}
	if v := os.Getenv("TRADEBIAS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.Workers = n
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Analysis.ClassifierMaxRows == 0 {
		cfg.Analysis.ClassifierMaxRows = 120_000
	}
	if cfg.Analysis.WatchIntervalSeconds == 0 {
		cfg.Analysis.WatchIntervalSeconds = 300
	}
	if cfg.Ledger.PageSize == 0 {
		cfg.Ledger.PageSize = 1000
	}
	if cfg.Ledger.MaxPages == 0 {
		cfg.Ledger.MaxPages = 50
	}
	if cfg.Ledger.RateLimit == 0 {
		cfg.Ledger.RateLimit = 5
	}
	if cfg.Ledger.TimeoutSeconds == 0 {
		cfg.Ledger.TimeoutSeconds = 15
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "tradebias.db"
	}
	if cfg.Storage.RetentionDays == 0 {
		cfg.Storage.RetentionDays = 90
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
