// Package csvsource carga ledgers de trades en CSV.
package csvsource

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

// Source lee un ledger CSV desde disco o desde un io.Reader (stdin).
// La cabecera es obligatoria; las columnas se buscan por nombre y las extra se ignoran.
type Source struct {
	name string
	path string
	r    io.Reader
}

// New crea una fuente que lee el fichero en path.
func New(path string) *Source {
	return &Source{name: path, path: path}
}

// NewReader crea una fuente sobre un reader ya abierto. El reader se consume una sola vez.
func NewReader(name string, r io.Reader) *Source {
	return &Source{name: name, r: r}
}

// Name devuelve la ruta o el nombre dado a la fuente.
func (s *Source) Name() string { return s.name }

// Load lee el CSV completo. Un fichero vacío devuelve un Ledger sin columnas ni filas.
func (s *Source) Load(ctx context.Context) (domain.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return domain.Ledger{}, fmt.Errorf("csvsource.Load: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if s.r != nil {
		data, err = io.ReadAll(s.r)
	} else {
		data, err = os.ReadFile(s.path)
	}
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("csvsource.Load: read %s: %w", s.name, err)
	}
	return Parse(s.name, data)
}

// Parse interpreta data como un CSV con cabecera.
//
// La cabecera se normaliza (minúsculas, "_") y las filas se igualan a su ancho antes de
// decodificarlas con gocsv, que exige registros del mismo largo y nombres exactos.
func Parse(name string, data []byte) (domain.Ledger, error) {
	rd := csv.NewReader(bytes.NewReader(data))
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true

	records, err := rd.ReadAll()
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("csvsource.Parse: read %s: %w", name, err)
	}
	if len(records) == 0 {
		return domain.Ledger{Name: name}, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = domain.NormalizeColumn(h)
	}
	ledger := domain.Ledger{Name: name, Columns: header}
	if len(records) == 1 {
		return ledger, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return domain.Ledger{}, fmt.Errorf("csvsource.Parse: rewrite header: %w", err)
	}
	for _, rec := range records[1:] {
		if err := w.Write(fitWidth(rec, len(header))); err != nil {
			return domain.Ledger{}, fmt.Errorf("csvsource.Parse: rewrite row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return domain.Ledger{}, fmt.Errorf("csvsource.Parse: flush: %w", err)
	}

	var rows []domain.RawRow
	if err := gocsv.UnmarshalBytes(buf.Bytes(), &rows); err != nil {
		return domain.Ledger{}, fmt.Errorf("csvsource.Parse: decode %s: %w", name, err)
	}
	ledger.Rows = rows
	return ledger, nil
}

// fitWidth recorta o rellena rec con celdas vacías hasta n columnas.
func fitWidth(rec []string, n int) []string {
	if len(rec) == n {
		return rec
	}
	out := make([]string, n)
	copy(out, rec)
	return out
}
