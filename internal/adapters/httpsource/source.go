package httpsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/alejandrodnm/tradebias/internal/domain"
)

const (
	defaultPageSize = 1000
	defaultMaxPages = 50
)

// Option configura una Source.
type Option func(*options)

type options struct {
	pageSize   int
	maxPages   int
	ratePerSec float64
	burst      int
	timeout    time.Duration
	retryWait  time.Duration
	token      string
}

// WithPageSize fija el tamaño de página pedido a la API.
func WithPageSize(n int) Option { return func(o *options) { o.pageSize = n } }

// WithMaxPages limita el número de páginas leídas por carga.
func WithMaxPages(n int) Option { return func(o *options) { o.maxPages = n } }

// WithRateLimit fija las peticiones por segundo y el burst del limiter.
func WithRateLimit(perSec float64, burst int) Option {
	return func(o *options) { o.ratePerSec, o.burst = perSec, burst }
}

// WithTimeout fija el timeout por petición.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithRetryWait fija la espera base del backoff.
func WithRetryWait(d time.Duration) Option { return func(o *options) { o.retryWait = d } }

// WithToken envía un bearer token en cada petición.
func WithToken(token string) Option { return func(o *options) { o.token = token } }

// Source pagina GET {base}/trades?account=&limit=&offset= hasta recibir una página corta.
type Source struct {
	base    string
	account string
	opts    options
	client  *client
}

// New crea una fuente para la cuenta dada. account vacío omite el parámetro.
func New(baseURL, account string, opts ...Option) *Source {
	o := options{
		pageSize:   defaultPageSize,
		maxPages:   defaultMaxPages,
		ratePerSec: defaultRatePerSec,
		burst:      defaultBurst,
		timeout:    defaultTimeout,
		retryWait:  baseRetryWait,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Source{
		base:    strings.TrimRight(baseURL, "/"),
		account: account,
		opts:    o,
		client:  newClient(o),
	}
}

// Name devuelve base URL y cuenta.
func (s *Source) Name() string {
	if s.account == "" {
		return s.base
	}
	return s.base + "#" + s.account
}

// Load lee todas las páginas y arma el Ledger. Las columnas son la unión de claves vistas.
func (s *Source) Load(ctx context.Context) (domain.Ledger, error) {
	ledger := domain.Ledger{Name: s.Name()}
	seen := make(map[string]bool)

	for page := 0; page < s.opts.maxPages; page++ {
		var resp []map[string]cell
		if err := s.client.get(ctx, s.pageURL(page*s.opts.pageSize), &resp); err != nil {
			return domain.Ledger{}, fmt.Errorf("httpsource.Load: page %d: %w", page, err)
		}

		for _, obj := range resp {
			var row domain.RawRow
			for k, v := range obj {
				col := domain.NormalizeColumn(k)
				if !seen[col] {
					seen[col] = true
					ledger.Columns = append(ledger.Columns, col)
				}
				row.Set(col, string(v))
			}
			ledger.Rows = append(ledger.Rows, row)
		}

		slog.Debug("fetched ledger page",
			"source", s.Name(),
			"page", page,
			"count", len(resp),
			"total", len(ledger.Rows),
		)

		if len(resp) < s.opts.pageSize {
			break
		}
	}

	slices.Sort(ledger.Columns)
	return ledger, nil
}

func (s *Source) pageURL(offset int) string {
	q := url.Values{}
	if s.account != "" {
		q.Set("account", s.account)
	}
	q.Set("limit", fmt.Sprint(s.opts.pageSize))
	q.Set("offset", fmt.Sprint(offset))
	return s.base + "/trades?" + q.Encode()
}

// cell acepta un string, un número o null JSON y lo guarda como texto.
type cell string

func (c *cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = cell(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("unsupported value %s", b)
		}
		*c = cell(n.String())
	}
	return nil
}
