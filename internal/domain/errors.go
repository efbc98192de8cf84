package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyDataset indica que la fuente no tenía ninguna fila.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrMissingColumns indica que faltan columnas obligatorias en la cabecera.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrClassifierUnavailable indica que no hay modelo de clasificación entrenado.
	// El pipeline lo recupera emitiendo bias_type_ratios = null.
	ErrClassifierUnavailable = errors.New("bias classifier unavailable")

	// ErrNonFinite indica que un documento contiene NaN o ±Inf tras sanear.
	ErrNonFinite = errors.New("non-finite value in report")
)

// MissingColumnsError lista las columnas ausentes. Envuelve ErrMissingColumns.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }
