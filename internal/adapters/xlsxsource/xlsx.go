// Package xlsxsource carga ledgers de trades desde hojas Excel.
package xlsxsource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

// Los seriales de fecha de Excel para 1900–2200 caen muy por debajo de cualquier
// unix timestamp plausible; por encima de este valor se deja el número como está.
const maxExcelSerial = 200_000

// Source lee la primera hoja (o la indicada) de un libro .xlsx.
// La primera fila no vacía es la cabecera.
type Source struct {
	path  string
	sheet string
}

// New crea una fuente sobre el libro en path. sheet vacío usa la primera hoja.
func New(path, sheet string) *Source {
	return &Source{path: path, sheet: sheet}
}

// Name devuelve la ruta del libro.
func (s *Source) Name() string { return s.path }

// Load abre el libro y convierte la hoja en un Ledger.
func (s *Source) Load(ctx context.Context) (domain.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return domain.Ledger{}, fmt.Errorf("xlsxsource.Load: %w", err)
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("xlsxsource.Load: open %s: %w", s.path, err)
	}
	defer f.Close()
	return readSheet(f, s.path, s.sheet)
}

// Parse lee un libro desde r.
func Parse(name string, r io.Reader, sheet string) (domain.Ledger, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("xlsxsource.Parse: open %s: %w", name, err)
	}
	defer f.Close()
	return readSheet(f, name, sheet)
}

func readSheet(f *excelize.File, name, sheet string) (domain.Ledger, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return domain.Ledger{Name: name}, nil
		}
		sheet = sheets[0]
	}

	// Valores crudos: las fechas llegan como serial y no con el formato de la celda.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("xlsxsource: read sheet %q: %w", sheet, err)
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	ledger := domain.Ledger{Name: name}
	headerIdx := -1
	for i, row := range rows {
		if !blank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return ledger, nil
	}

	for _, h := range rows[headerIdx] {
		ledger.Columns = append(ledger.Columns, domain.NormalizeColumn(h))
	}

	for _, cells := range rows[headerIdx+1:] {
		if blank(cells) {
			continue
		}
		var raw domain.RawRow
		for j, col := range ledger.Columns {
			if j >= len(cells) {
				break
			}
			v := strings.TrimSpace(cells[j])
			if col == "timestamp" {
				v = serialToTimestamp(v, date1904)
			}
			raw.Set(col, v)
		}
		ledger.Rows = append(ledger.Rows, raw)
	}

	slog.Debug("xlsx sheet loaded", "source", name, "sheet", sheet, "rows", len(ledger.Rows))
	return ledger, nil
}

// serialToTimestamp convierte un serial de fecha Excel a RFC3339. Cualquier otro valor se devuelve tal cual.
func serialToTimestamp(v string, date1904 bool) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial <= 0 || serial >= maxExcelSerial {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return v
	}
	return t.Round(time.Millisecond).Format(time.RFC3339Nano)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
