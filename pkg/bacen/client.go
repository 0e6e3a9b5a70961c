// Package bacen provides a client for the Banco Central do Brasil SGS
// (Sistema Gerenciador de Séries Temporais) time-series API.
package bacen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Well-known SGS series codes.
const (
	// SeriesSelic is the Copom SELIC target, in percent per year.
	SeriesSelic = 432
	// SeriesCDI is the CDI rate annualized on a 252-day basis, in percent per year.
	SeriesCDI = 4389
	// SeriesIPCA is the monthly IPCA inflation, in percent per month.
	SeriesIPCA = 433
)

// DateLayout is the dd/MM/yyyy layout used by SGS for both query and response dates.
const DateLayout = "02/01/2006"

// DefaultBaseURL is the public SGS endpoint.
const DefaultBaseURL = "https://api.bcb.gov.br/dados/serie"

// ErrInvalidValue marks a data point whose value is not a finite number.
var ErrInvalidValue = eris.New("bacen: invalid value")

// Observation is one data point of a series.
type Observation struct {
	Date  time.Time
	Value float64
}

// Client defines the SGS operations.
type Client interface {
	// Latest returns the most recent observation of a series.
	Latest(ctx context.Context, code int) (Observation, error)
	// Range returns the observations between from and to, inclusive.
	Range(ctx context.Context, code int, from, to time.Time) ([]Observation, error)
}

// StatusError is a non-200 SGS answer.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bacen: sgs returned %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit paces requests to rps per second. Zero or negative disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an SGS client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sgsPoint struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

func (c *httpClient) Latest(ctx context.Context, code int) (Observation, error) {
	u := fmt.Sprintf("%s/bcdata.sgs.%d/dados/ultimos/1?formato=json", c.baseURL, code)
	obs, err := c.get(ctx, u)
	if err != nil {
		return Observation{}, eris.Wrapf(err, "bacen: latest series %d", code)
	}
	if len(obs) == 0 {
		return Observation{}, eris.Errorf("bacen: latest series %d: empty response", code)
	}
	return obs[len(obs)-1], nil
}

func (c *httpClient) Range(ctx context.Context, code int, from, to time.Time) ([]Observation, error) {
	if to.Before(from) {
		return nil, eris.Errorf("bacen: range series %d: end %s before start %s", code, to.Format(DateLayout), from.Format(DateLayout))
	}
	q := url.Values{}
	q.Set("formato", "json")
	q.Set("dataInicial", from.Format(DateLayout))
	q.Set("dataFinal", to.Format(DateLayout))
	u := fmt.Sprintf("%s/bcdata.sgs.%d/dados?%s", c.baseURL, code, q.Encode())
	obs, err := c.get(ctx, u)
	if err != nil {
		return nil, eris.Wrapf(err, "bacen: range series %d", code)
	}
	return obs, nil
}

func (c *httpClient) get(ctx context.Context, u string) ([]Observation, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "http call")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, eris.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	return Parse(body)
}

// Parse decodes an SGS JSON payload. Values use a dot decimal separator.
func Parse(body []byte) ([]Observation, error) {
	var points []sgsPoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, eris.Wrap(err, "decode sgs payload")
	}
	out := make([]Observation, 0, len(points))
	for _, p := range points {
		d, err := time.Parse(DateLayout, p.Data)
		if err != nil {
			return nil, eris.Wrapf(err, "parse date %q", p.Data)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(p.Valor), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parse value %q", p.Valor)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, eris.Wrapf(ErrInvalidValue, "parse value %q", p.Valor)
		}
		out = append(out, Observation{Date: d, Value: v})
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
