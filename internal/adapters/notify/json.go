package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

// JSON implementa ports.Notifier escribiendo el documento de métricas.
// Es seguro para uso concurrente: cada documento se escribe entero.
type JSON struct {
	mu     sync.Mutex
	out    io.Writer
	indent bool
}

// NewJSON crea un notificador que escribe a stdout.
func NewJSON(indent bool) *JSON {
	return &JSON{out: os.Stdout, indent: indent}
}

// NewJSONWriter crea un notificador sobre w.
func NewJSONWriter(w io.Writer, indent bool) *JSON {
	return &JSON{out: w, indent: indent}
}

// Notify escribe el reporte como un documento JSON seguido de salto de línea.
// Un reporte con hojas no finitas se rechaza antes de escribir nada.
func (j *JSON) Notify(_ context.Context, r domain.Report) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("notify.JSON: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	enc := json.NewEncoder(j.out)
	if j.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("notify.JSON: encode: %w", err)
	}
	return nil
}
