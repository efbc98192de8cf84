package storage

// sqlite.go: historial de reportes.
//
// Estrategia:
//   - `reports`: una fila por reporte con el documento JSON completo y columnas
//     planas (scores, sesgo dominante) para consultar la evolución sin parsear JSON.
//   - Cache en memoria: guarda la huella del último reporte por fuente. En modo watch
//     un ledger que no cambió produce el mismo reporte y no se vuelve a escribir.
//   - Prune automático al arrancar: reportes más viejos que la retención.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
    id                TEXT PRIMARY KEY,
    source            TEXT     NOT NULL,
    generated_at      DATETIME NOT NULL,
    trades            INTEGER  NOT NULL DEFAULT 0,
    dominant_bias     TEXT,
    consistency       REAL     NOT NULL DEFAULT 0,
    holding_patience  REAL     NOT NULL DEFAULT 0,
    risk_reactivity   REAL     NOT NULL DEFAULT 0,
    trade_frequency   REAL     NOT NULL DEFAULT 0,
    tilt_pct          REAL     NOT NULL DEFAULT 0,
    disposition_ratio REAL     NOT NULL DEFAULT 0,
    fingerprint       TEXT     NOT NULL,
    document          TEXT     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_source_at ON reports(source, generated_at DESC);
CREATE INDEX IF NOT EXISTS idx_reports_at        ON reports(generated_at DESC);
`

// DefaultRetention es la antigüedad máxima de un reporte antes del prune.
const DefaultRetention = 90 * 24 * time.Hour

// ErrReportNotFound indica que no existe un reporte con ese ID.
var ErrReportNotFound = errors.New("report not found")

// SQLiteStorage implementa ports.ReportStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db    *sql.DB
	cache map[string]string // source → fingerprint del último reporte guardado
	mu    sync.Mutex
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, borra reportes más viejos que retention (0 → DefaultRetention)
// y precarga la cache.
func NewSQLiteStorage(path string, retention time.Duration) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	if retention <= 0 {
		retention = DefaultRetention
	}
	s := &SQLiteStorage{
		db:    db,
		cache: make(map[string]string),
	}
	s.pruneOld(context.Background(), retention)
	s.warmCache(context.Background())
	return s, nil
}

// SaveReport persiste el reporte. Si no tiene ID se le asigna un UUID.
// Un reporte idéntico al último guardado de la misma fuente no se escribe.
func (s *SQLiteStorage) SaveReport(ctx context.Context, r domain.Report) error {
	fp := fingerprint(r)
	if !s.changed(r.Source, fp) {
		slog.Debug("report unchanged, skipping save", "source", r.Source)
		return nil
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("storage.SaveReport: marshal: %w", err)
	}

	dominant := sql.NullString{}
	if r.BiasTypeRatios != nil {
		dominant = sql.NullString{String: r.BiasTypeRatios.Dominant(), Valid: true}
	}
	pm := r.PortfolioMetrics

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO reports
			(id, source, generated_at, trades, dominant_bias,
			 consistency, holding_patience, risk_reactivity, trade_frequency,
			 tilt_pct, disposition_ratio, fingerprint, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Source,
		r.GeneratedAt.UTC(),
		r.Summary.Trades,
		dominant,
		pm.ConsistencyScore,
		pm.HoldingPatienceScore,
		pm.RiskReactivityScore,
		pm.TradeFrequencyScore,
		r.Behavioral.RevengeTrading.TiltIndicatorPct,
		r.Behavioral.LossAversion.DispositionRatio,
		fp,
		string(doc),
	); err != nil {
		s.forget(r.Source)
		return fmt.Errorf("storage.SaveReport: insert %s: %w", r.ID, err)
	}
	return nil
}

// GetReport devuelve el reporte con el ID dado, o ErrReportNotFound.
func (s *SQLiteStorage) GetReport(ctx context.Context, id string) (domain.Report, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM reports WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Report{}, fmt.Errorf("storage.GetReport: %s: %w", id, ErrReportNotFound)
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("storage.GetReport: query: %w", err)
	}

	var r domain.Report
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return domain.Report{}, fmt.Errorf("storage.GetReport: decode %s: %w", id, err)
	}
	return r, nil
}

// GetHistory devuelve los reportes generados en [from, to], los más recientes primero.
// source vacío incluye todas las fuentes.
func (s *SQLiteStorage) GetHistory(ctx context.Context, source string, from, to time.Time) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document
		FROM reports
		WHERE generated_at BETWEEN ? AND ?
		  AND (? = '' OR source = ?)
		ORDER BY generated_at DESC
	`, from.UTC(), to.UTC(), source, source)
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan row: %w", err)
		}
		var r domain.Report
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: decode: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// changed compara la huella con la última guardada de la fuente y actualiza la cache.
func (s *SQLiteStorage) changed(source, fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.cache[source]; ok && prev == fp {
		return false
	}
	s.cache[source] = fp
	return true
}

func (s *SQLiteStorage) forget(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, source)
}

// pruneOld elimina reportes antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context, retention time.Duration) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE generated_at < ?`, cutoff)
	if err != nil {
		slog.Warn("report prune failed", "err", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("pruned old reports", "count", n)
	}
}

// warmCache precarga la huella del último reporte de cada fuente.
func (s *SQLiteStorage) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, fingerprint FROM reports r
		WHERE generated_at = (SELECT MAX(generated_at) FROM reports WHERE source = r.source)
	`)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var source, fp string
		if rows.Scan(&source, &fp) == nil {
			s.cache[source] = fp
		}
	}
}

// fingerprint resume lo que distingue a un reporte de otro de la misma fuente:
// el rango de trades y todas las métricas. ID y fecha de generación no cuentan.
func fingerprint(r domain.Report) string {
	r.ID = ""
	r.GeneratedAt = time.Time{}
	b, err := json.Marshal(r)
	if err != nil {
		return uuid.NewString() // nunca coincide: fuerza la escritura
	}
	return string(b)
}
